package auth

import (
	"testing"
	"time"
)

func testManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret: "test-secret-key",
		Expiry: expiry,
		Issuer: "classbridge-test",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := testManager(time.Hour)

	token, jti, err := manager.GenerateToken(42, "student@example.com", "student", 3)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}
	if jti == "" {
		t.Fatal("expected a non-empty jti")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("expected user ID 42, got %d", claims.UserID)
	}
	if claims.Email != "student@example.com" {
		t.Errorf("expected email student@example.com, got %s", claims.Email)
	}
	if claims.Role != "student" {
		t.Errorf("expected role student, got %s", claims.Role)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("expected token version 3, got %d", claims.TokenVersion)
	}
	if claims.ID != jti {
		t.Errorf("expected claim ID %s, got %s", jti, claims.ID)
	}
	if claims.Issuer != "classbridge-test" {
		t.Errorf("expected issuer classbridge-test, got %s", claims.Issuer)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	manager := testManager(time.Hour)
	token, _, err := manager.GenerateToken(1, "a@b.com", "teacher", 0)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	other := NewJWTManager(JWTConfig{
		Secret: "a-different-secret",
		Expiry: time.Hour,
		Issuer: "classbridge-test",
	})

	if _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	manager := testManager(-time.Minute)
	token, _, err := manager.GenerateToken(1, "a@b.com", "student", 0)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := manager.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenTampered(t *testing.T) {
	manager := testManager(time.Hour)
	token, _, err := manager.GenerateToken(1, "a@b.com", "student", 0)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := manager.ValidateToken(tampered); err == nil {
		t.Error("expected an error for a tampered token")
	}
}

func TestExpiryAccessor(t *testing.T) {
	manager := testManager(72 * time.Hour)
	if got := manager.Expiry(); got != 72*time.Hour {
		t.Errorf("expected 72h, got %v", got)
	}
}
