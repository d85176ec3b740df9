package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/utils/auth"
	"github.com/sahilchouksey/classbridge-api/utils/response"
)

// LoginRequest represents a login request. The identifier is an email
// address or, for students, a roll number.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Login handles POST /api/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Find user by email or roll number
	var user model.User
	err := h.db.Where("email = ? OR roll_number = ?", req.Identifier, req.Identifier).
		First(&user).Error
	if err != nil {
		return response.Unauthorized(c, "Invalid credentials")
	}

	// Verify password
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return response.Unauthorized(c, "Invalid credentials")
	}

	res, err := h.issueToken(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.Success(c, res)
}
