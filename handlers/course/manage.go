package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/handlers"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// CourseRequest represents the request body for creating or updating a course
type CourseRequest struct {
	Title         string  `json:"title" validate:"required,min=3,max=255"`
	Description   string  `json:"description" validate:"omitempty,max=5000"`
	CategoryID    *uint   `json:"category_id" validate:"omitempty,min=1"`
	TrainerID     *uint   `json:"trainer_id" validate:"omitempty,min=1"`
	Price         float64 `json:"price" validate:"gte=0"`
	DurationHours int     `json:"duration_hours" validate:"gte=0,lte=10000"`
	IsActive      *bool   `json:"is_active"`
}

// AssignTrainerRequest sets or clears a course's trainer
type AssignTrainerRequest struct {
	TrainerID *uint `json:"trainer_id" validate:"omitempty,min=1"`
}

func (r CourseRequest) toInput() services.CourseInput {
	return services.CourseInput{
		Title:         validation.SanitizeString(r.Title),
		Description:   validation.SanitizeText(r.Description),
		CategoryID:    r.CategoryID,
		TrainerID:     r.TrainerID,
		Price:         r.Price,
		DurationHours: r.DurationHours,
		IsActive:      r.IsActive,
	}
}

// ListManagedCourses handles GET /api/v1/manager/courses
func (h *CourseHandler) ListManagedCourses(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	filter, page, limit := filterFromQuery(c)

	courses, total, err := h.catalog.ManagerCourses(c.UserContext(), rc, filter)
	if err != nil {
		return response.FromError(c, h.log, err)
	}

	_, pagination := response.CalculatePagination(page, limit, total)
	return response.Paginated(c, courses, pagination)
}

// CreateCourse handles POST /api/v1/manager/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.catalog.CreateCourse(c.UserContext(), rc, req.toInput())
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/manager/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.catalog.UpdateCourse(c.UserContext(), rc, id, req.toInput())
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, course)
}

// AssignTrainer handles PUT /api/v1/manager/courses/:id/trainer
func (h *CourseHandler) AssignTrainer(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req AssignTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.catalog.AssignTrainer(c.UserContext(), rc, id, req.TrainerID)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, course)
}
