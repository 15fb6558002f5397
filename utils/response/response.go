// Package response writes the JSON envelope every endpoint answers with:
// {"success": bool, "message": ..., "data": ...} on success and
// {"success": false, "error": {...}} on failure.
package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/utils/apperror"
	"github.com/sahilchouksey/elearning-api/utils/logger"
)

type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// kindStatus maps classified failures onto HTTP statuses
var kindStatus = map[apperror.Kind]int{
	apperror.KindUnauthorized: fiber.StatusUnauthorized,
	apperror.KindForbidden:    fiber.StatusForbidden,
	apperror.KindNotFound:     fiber.StatusNotFound,
	apperror.KindValidation:   fiber.StatusUnprocessableEntity,
	apperror.KindConflict:     fiber.StatusConflict,
	apperror.KindGateway:      fiber.StatusBadGateway,
}

func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Response{Success: true, Data: data})
}

// SuccessWithMessage is also used for informational outcomes such as "already enrolled"
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Resource created successfully",
		Data:    data,
	})
}

func Paginated(c *fiber.Ctx, data interface{}, pagination PaginationMeta) error {
	return c.JSON(PaginatedResponse{Success: true, Data: data, Pagination: pagination})
}

// Error writes a failure envelope tagged with the request id
func Error(c *fiber.Ctx, status int, message, code string) error {
	return writeError(c, status, &ErrorDetail{Code: code, Message: message})
}

func writeError(c *fiber.Ctx, status int, detail *ErrorDetail) error {
	detail.RequestID = c.GetRespHeader(fiber.HeaderXRequestID)
	return c.Status(status).JSON(Response{Error: detail})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "BAD_REQUEST")
}

func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message, "UNAUTHORIZED")
}

func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message, "FORBIDDEN")
}

func TooManyRequests(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusTooManyRequests, message, "TOO_MANY_REQUESTS")
}

func InternalServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message, "INTERNAL_ERROR")
}

func ServiceUnavailable(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return Error(c, fiber.StatusServiceUnavailable, message, "SERVICE_UNAVAILABLE")
}

// ValidationError answers 422. Errors exposing per-field messages keep them under error.fields.
func ValidationError(c *fiber.Ctx, err error) error {
	detail := &ErrorDetail{Code: "VALIDATION_ERROR", Message: err.Error()}

	var fielded interface{ Fields() map[string]string }
	if errors.As(err, &fielded) {
		detail.Message = "Validation failed"
		detail.Fields = fielded.Fields()
	}
	return writeError(c, fiber.StatusUnprocessableEntity, detail)
}

// FromError maps a service error onto the matching response.
// Unclassified errors are reported and hidden behind a generic 500.
func FromError(c *fiber.Ctx, log *logger.Logger, err error) error {
	appErr, ok := apperror.As(err)
	if !ok {
		if log != nil {
			log.Report("request failed", err,
				"method", c.Method(),
				"path", c.Path(),
				"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			)
		}
		return InternalServerError(c, "")
	}

	status, known := kindStatus[appErr.Kind]
	if !known {
		return InternalServerError(c, appErr.Message)
	}
	if appErr.Kind == apperror.KindGateway && log != nil {
		log.Warn("payment gateway failure", "path", c.Path(), "error", err)
	}
	return Error(c, status, appErr.Message, appErr.Code)
}

// CalculatePagination clamps page to >= 1 and limit to 1..100 (default 10),
// returning the row offset and the metadata for the response
func CalculatePagination(page, limit int, total int64) (int, PaginationMeta) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = 10
	case limit > 100:
		limit = 100
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return (page - 1) * limit, PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		TotalPages:  totalPages,
	}
}
