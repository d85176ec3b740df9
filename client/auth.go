package client

import (
	"context"
	"net/http"
	"time"
)

// User is the profile shape returned by the server
type User struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	RollNumber *string   `json:"roll_number,omitempty"`
	Department string    `json:"department,omitempty"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Profile is the public projection attached to submissions and messages
type Profile struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	RollNumber *string `json:"roll_number,omitempty"`
	Department string  `json:"department,omitempty"`
	PhotoURL   string  `json:"photo_url,omitempty"`
}

// Session is a logged-in identity. It is passed explicitly to every
// authenticated call; Logout clears the token so further calls fail with
// Unauthorized.
type Session struct {
	Token     string
	ExpiresIn int
	User      User
}

type authPayload struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// SignupInput registers a new account. RollNumber is required for
// students, Department is optional and meant for teachers.
type SignupInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	RollNumber string `json:"roll_number,omitempty"`
	Department string `json:"department,omitempty"`
}

// Signup registers an account and returns a live session
func (c *Client) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	var payload authPayload
	if err := c.do(ctx, http.MethodPost, "/api/signup", nil, input, &payload); err != nil {
		return nil, err
	}
	return &Session{Token: payload.Token, ExpiresIn: payload.ExpiresIn, User: payload.User}, nil
}

// Login authenticates by email or roll number
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	body := map[string]string{"identifier": identifier, "password": password}
	var payload authPayload
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, body, &payload); err != nil {
		return nil, err
	}
	return &Session{Token: payload.Token, ExpiresIn: payload.ExpiresIn, User: payload.User}, nil
}

// Logout revokes the session's token server-side and clears it locally
func (c *Client) Logout(ctx context.Context, session *Session) error {
	if err := c.do(ctx, http.MethodPost, "/api/logout", session, nil, nil); err != nil {
		return err
	}
	session.Token = ""
	return nil
}

// GetProfile fetches the caller's profile
func (c *Client) GetProfile(ctx context.Context, session *Session) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/me", session, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate carries the editable profile fields. Changing the
// password revokes every outstanding token, including this session's.
type ProfileUpdate struct {
	Name            string `json:"name,omitempty"`
	Department      string `json:"department,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
}

// UpdateProfile applies the given profile changes
func (c *Client) UpdateProfile(ctx context.Context, session *Session, update ProfileUpdate) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/api/me", session, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadPhoto replaces the caller's profile photo
func (c *Client) UploadPhoto(ctx context.Context, session *Session, photo Upload) (*User, error) {
	var user User
	err := c.doMultipart(ctx, "/api/me/photo", session, "photo", []Upload{photo}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
