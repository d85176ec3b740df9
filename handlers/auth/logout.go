package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"github.com/sahilchouksey/classbridge-api/utils/response"
)

// Logout handles POST /api/logout by denylisting the presented token's
// JTI until the token would have expired anyway. There is no refresh
// token to revoke.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	claims, ok := middleware.GetClaims(c)
	if !ok || claims.ExpiresAt == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	err := h.blacklistService.RevokeToken(c.Context(), claims.ID, user.ID, claims.ExpiresAt.Time, "logout")
	if err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}
