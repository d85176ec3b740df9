package auth

import (
	"context"
	"log"
	"time"

	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/utils/cache"
	"gorm.io/gorm"
)

const denylistKeyPrefix = "denylist:"

// BlacklistService handles JWT token revocation. The database is the
// source of truth; Redis, when configured, is a read-through cache so the
// per-request revocation check usually skips the database.
type BlacklistService struct {
	db    *gorm.DB
	cache *cache.RedisCache // nil when Redis is not configured
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(db *gorm.DB, redisCache *cache.RedisCache) *BlacklistService {
	return &BlacklistService{db: db, cache: redisCache}
}

// RevokeToken adds a token's JTI to the blacklist until it expires
func (s *BlacklistService) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; the expiry check rejects it anyway
		return nil
	}

	entry := model.JWTTokenBlacklist{
		JTI:       jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, denylistKeyPrefix+jti, "1", ttl); err != nil {
			log.Printf("Blacklist: cache set failed for jti %s: %v", jti, err)
		}
	}

	return nil
}

// IsTokenRevoked checks if a token's JTI is in the blacklist. A cache hit
// short-circuits; a miss falls through to the database (the cache may have
// been evicted or never populated).
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if s.cache != nil {
		hit, err := s.cache.Exists(ctx, denylistKeyPrefix+jti)
		if err == nil && hit {
			return true, nil
		}
		if err != nil {
			log.Printf("Blacklist: cache lookup failed for jti %s: %v", jti, err)
		}
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("jti = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).
		Error

	if err != nil {
		return false, err
	}

	if count > 0 && s.cache != nil {
		// Backfill so the next check is a cache hit
		_ = s.cache.Set(ctx, denylistKeyPrefix+jti, "1", time.Hour)
	}

	return count > 0, nil
}

// RevokeAllUserTokens increments user's token version to invalidate all tokens
func (s *BlacklistService) RevokeAllUserTokens(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).
		Error
}

// CleanupExpiredTokens removes expired entries from the blacklist and
// returns how many rows were deleted
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}
