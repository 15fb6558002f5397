package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
)

// DashboardHandler serves the role-specific landing page
type DashboardHandler struct {
	reports *services.ReportService
	log     *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(reports *services.ReportService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{reports: reports, log: log}
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	rc, ok := middleware.GetRequestContext(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	dashboard, err := h.reports.Dashboard(c.UserContext(), rc)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, dashboard)
}
