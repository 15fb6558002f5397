package payment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/handlers"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// PaymentHandler handles enrollment checkout and payment administration
type PaymentHandler struct {
	enrollments *services.EnrollmentService
	reports     *services.ReportService
	validator   *validation.Validator
	log         *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(enrollments *services.EnrollmentService, reports *services.ReportService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		enrollments: enrollments,
		reports:     reports,
		validator:   validation.NewValidator(),
		log:         log,
	}
}

// ConfirmRequest optionally names the checkout session being confirmed
type ConfirmRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=255"`
}

// UpdateStatusRequest is the manager override body
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,payment_status"`
}

// respond renders a workflow result. Replays such as already_enrolled are successes carrying their message.
func respond(c *fiber.Ctx, result *services.EnrollmentResult) error {
	if result.Outcome == services.OutcomeEnrolled {
		return c.Status(fiber.StatusCreated).JSON(response.Response{
			Success: true,
			Message: result.Message,
			Data:    result,
		})
	}
	return response.SuccessWithMessage(c, result.Message, result)
}

// Enroll handles POST /api/v1/courses/:id/enroll. Free courses enroll at once; paid ones return a checkout_url.
func (h *PaymentHandler) Enroll(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	result, err := h.enrollments.InitiateEnrollment(c.UserContext(), rc, courseID)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	if result.Outcome == services.OutcomeEnrolled {
		h.reports.InvalidateOverview(c.UserContext())
	}
	return respond(c, result)
}

// ConfirmPayment handles GET and POST /api/v1/courses/:id/payment/success.
// The session id comes from the session_id query parameter or the body.
func (h *PaymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	req := ConfirmRequest{SessionID: c.Query("session_id")}
	if req.SessionID == "" && len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.enrollments.ConfirmPayment(c.UserContext(), rc, courseID, validation.SanitizeString(req.SessionID))
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	if result.Outcome == services.OutcomeConfirmed {
		h.reports.InvalidateOverview(c.UserContext())
	}
	return respond(c, result)
}

// CancelPayment handles GET /api/v1/courses/:id/payment/cancel
func (h *PaymentHandler) CancelPayment(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	result, err := h.enrollments.CancelPayment(c.UserContext(), rc, courseID)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return respond(c, result)
}

// ListPayments handles GET /api/v1/manager/payments
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	report, err := h.reports.Payments(c.UserContext(), rc)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, report)
}

// UpdatePaymentStatus handles PUT /api/v1/manager/payments/:id/status
func (h *PaymentHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	paymentID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid payment ID")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	payment, err := h.enrollments.UpdatePaymentStatus(c.UserContext(), rc, paymentID, model.PaymentStatus(req.Status))
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	h.reports.InvalidateOverview(c.UserContext())
	return response.Success(c, payment)
}
