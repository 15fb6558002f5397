package course

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/handlers"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// CourseHandler handles catalog requests
type CourseHandler struct {
	catalog   *services.CatalogService
	validator *validation.Validator
	log       *logger.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(catalog *services.CatalogService, log *logger.Logger) *CourseHandler {
	return &CourseHandler{
		catalog:   catalog,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

// filterFromQuery reads search, category_id and paging from the query string
func filterFromQuery(c *fiber.Ctx) (services.CourseFilter, int, int) {
	page, limit := handlers.PageParams(c)
	offset, meta := response.CalculatePagination(page, limit, 0)
	categoryID, _ := strconv.ParseUint(c.Query("category_id", "0"), 10, 64)

	return services.CourseFilter{
		Search:     validation.SanitizeString(c.Query("search", "")),
		CategoryID: uint(categoryID),
		Offset:     offset,
		Limit:      meta.PerPage,
	}, meta.CurrentPage, meta.PerPage
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	filter, page, limit := filterFromQuery(c)

	courses, total, err := h.catalog.BrowseCourses(c.UserContext(), rc, filter)
	if err != nil {
		return response.FromError(c, h.log, err)
	}

	_, pagination := response.CalculatePagination(page, limit, total)
	return response.Paginated(c, courses, pagination)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	detail, err := h.catalog.CourseDetail(c.UserContext(), rc, id)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, detail)
}

// ListCategories handles GET /api/v1/categories
func (h *CourseHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, categories)
}

// CreateCategory handles POST /api/v1/manager/categories
func (h *CourseHandler) CreateCategory(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)

	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	category, err := h.catalog.CreateCategory(c.UserContext(), rc,
		validation.SanitizeString(req.Name), validation.SanitizeText(req.Description))
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Created(c, category)
}

// GetTrainer handles GET /api/v1/trainers/:id
func (h *CourseHandler) GetTrainer(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid trainer ID")
	}

	profile, err := h.catalog.TrainerDetails(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, profile)
}
