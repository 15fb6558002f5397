package manager

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// ManagerHandler serves the manager reports and trainer administration
type ManagerHandler struct {
	accounts  *services.AccountService
	reports   *services.ReportService
	validator *validation.Validator
	log       *logger.Logger
}

// NewManagerHandler creates a new manager handler
func NewManagerHandler(accounts *services.AccountService, reports *services.ReportService, log *logger.Logger) *ManagerHandler {
	return &ManagerHandler{
		accounts:  accounts,
		reports:   reports,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// CreateTrainerRequest represents a new trainer account
type CreateTrainerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"omitempty,min=3,max=150"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	SkypeID  string `json:"skype_id" validate:"omitempty,max=100"`
}

// GetOverview handles GET /api/v1/manager/overview
func (h *ManagerHandler) GetOverview(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	overview, err := h.reports.ManagerOverview(c.UserContext(), rc)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, overview)
}

// ListTrainers handles GET /api/v1/manager/trainers
func (h *ManagerHandler) ListTrainers(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	trainers, err := h.reports.Trainers(c.UserContext(), rc)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, trainers)
}

// CreateTrainer handles POST /api/v1/manager/trainers
func (h *ManagerHandler) CreateTrainer(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	var req CreateTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	trainer, err := h.accounts.CreateTrainer(c.UserContext(), rc, services.NewAccount{
		Email:    req.Email,
		Username: validation.SanitizeString(req.Username),
		Password: req.Password,
		Name:     validation.SanitizeString(req.Name),
		Phone:    validation.SanitizeString(req.Phone),
		SkypeID:  validation.SanitizeString(req.SkypeID),
	})
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Created(c, trainer)
}

// GetFeedback handles GET /api/v1/manager/feedback
func (h *ManagerHandler) GetFeedback(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	report, err := h.reports.Feedback(c.UserContext(), rc)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, report)
}

// GetProgressAnalytics handles GET /api/v1/manager/analytics/progress
func (h *ManagerHandler) GetProgressAnalytics(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	analytics, err := h.reports.ProgressAnalytics(c.UserContext(), rc)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, analytics)
}
