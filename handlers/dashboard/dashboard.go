package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/services"
	"github.com/sahilchouksey/classbridge-api/utils/middleware"
	"github.com/sahilchouksey/classbridge-api/utils/response"
)

// DashboardHandler serves the role-specific summary counts
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Summary handles GET /api/dashboard/summary. Counts are recomputed on
// every request.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if user.IsTeacher() {
		summary, err := h.dashboardService.TeacherSummary(c.Context(), user.ID)
		if err != nil {
			return response.InternalServerError(c, "Failed to compute summary")
		}
		return response.Success(c, summary)
	}

	summary, err := h.dashboardService.StudentSummary(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute summary")
	}
	return response.Success(c, summary)
}
