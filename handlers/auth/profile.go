package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/services"
	authutil "github.com/sahilchouksey/classbridge-api/utils/auth"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"github.com/sahilchouksey/classbridge-api/utils/response"
	"github.com/sahilchouksey/classbridge-api/utils/validation"
)

// UpdateProfileRequest represents a profile update request. A password
// change requires both password fields; everything else is optional.
type UpdateProfileRequest struct {
	Name            string `json:"name" validate:"omitempty,min=2,max=255"`
	Department      string `json:"department" validate:"omitempty,max=100"`
	CurrentPassword string `json:"current_password" validate:"required_with=NewPassword"`
	NewPassword     string `json:"new_password" validate:"omitempty,min=8"`
}

// GetProfile handles GET /api/me
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	return response.Success(c, newUserResponse(user))
}

// UpdateProfile handles PUT /api/me. Changing the password bumps the
// user's token version, which invalidates every outstanding token
// including the one used for this request.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		user.Name = validation.SanitizeString(req.Name)
		updates["name"] = user.Name
	}
	if req.Department != "" {
		user.Department = validation.SanitizeString(req.Department)
		updates["department"] = user.Department
	}

	passwordChanged := false
	if req.NewPassword != "" {
		if err := authutil.VerifyPassword(user.PasswordHash, req.CurrentPassword); err != nil {
			return response.Unauthorized(c, "Current password is incorrect")
		}

		hashed, err := authutil.HashPassword(req.NewPassword)
		if err != nil {
			return response.InternalServerError(c, "Failed to process password")
		}
		updates["password_hash"] = hashed
		passwordChanged = true
	}

	if len(updates) == 0 {
		return response.Success(c, newUserResponse(user))
	}

	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	if passwordChanged {
		if err := h.blacklistService.RevokeAllUserTokens(c.Context(), user.ID); err != nil {
			return response.InternalServerError(c, "Failed to invalidate sessions")
		}
		h.audit.Record(c.Context(), user.ID, model.AuditActionPasswordChange, "users", user.ID, nil)

		return response.SuccessWithMessage(c, "Password updated, please log in again", newUserResponse(user))
	}

	return response.SuccessWithMessage(c, "Profile updated successfully", newUserResponse(user))
}

// UploadPhoto handles POST /api/me/photo
func (h *AuthHandler) UploadPhoto(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return response.BadRequest(c, "Photo file is required")
	}

	updated, err := h.uploadService.SaveProfilePhoto(c.Context(), user, file)
	switch {
	case errors.Is(err, services.ErrInvalidFile):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrRemoteUpload):
		return response.UploadError(c, "Failed to store photo")
	case err != nil:
		return response.InternalServerError(c, "Failed to update photo")
	}

	return response.SuccessWithMessage(c, "Photo updated successfully", newUserResponse(updated))
}
