package trainer

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/handlers"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
)

// TrainerHandler serves the trainer's views of their own courses
type TrainerHandler struct {
	reports *services.ReportService
	log     *logger.Logger
}

// NewTrainerHandler creates a new trainer handler
func NewTrainerHandler(reports *services.ReportService, log *logger.Logger) *TrainerHandler {
	return &TrainerHandler{reports: reports, log: log}
}

// GetDashboard handles GET /api/v1/trainer/dashboard
func (h *TrainerHandler) GetDashboard(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	dashboard, err := h.reports.TrainerDashboard(c.UserContext(), rc)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, dashboard)
}

// CourseStudents handles GET /api/v1/trainer/courses/:id/students
func (h *TrainerHandler) CourseStudents(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	report, err := h.reports.CourseStudents(c.UserContext(), rc, courseID)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, report)
}
