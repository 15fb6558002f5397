package video

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/handlers"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/services/storage"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// MaxUploadSize caps a single video upload
const MaxUploadSize = 500 * 1024 * 1024

// VideoHandler handles video uploads, playback and watch progress
type VideoHandler struct {
	catalog   *services.CatalogService
	progress  *services.ProgressService
	validator *validation.Validator
	log       *logger.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(catalog *services.CatalogService, progress *services.ProgressService, log *logger.Logger) *VideoHandler {
	return &VideoHandler{
		catalog:   catalog,
		progress:  progress,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// AddVideoRequest holds the form fields sent alongside an optional file
type AddVideoRequest struct {
	Title           string `form:"title" validate:"required,min=2,max=255"`
	Description     string `form:"description" validate:"omitempty,max=5000"`
	DurationMinutes int    `form:"duration_minutes" validate:"gte=0"`
	Order           int    `form:"order" validate:"gte=0"`
}

// ProgressRequest records watch activity
type ProgressRequest struct {
	Completed      bool `json:"completed"`
	WatchedSeconds int  `json:"watched_seconds" validate:"gte=0"`
}

// AddVideo handles POST /api/v1/courses/:id/videos as multipart form data.
// The "file" part is optional; without it the video is created as metadata only.
func (h *VideoHandler) AddVideo(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req AddVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	input := services.VideoInput{
		Title:           validation.SanitizeString(req.Title),
		Description:     validation.SanitizeText(req.Description),
		DurationMinutes: req.DurationMinutes,
		Order:           req.Order,
	}

	var upload *services.Upload
	if file, err := c.FormFile("file"); err == nil {
		if !storage.AllowedVideo(file.Filename) {
			return response.BadRequest(c, "Unsupported video format")
		}
		if file.Size > MaxUploadSize {
			return response.BadRequest(c, "Video exceeds the maximum upload size")
		}

		body, err := file.Open()
		if err != nil {
			return response.BadRequest(c, "Failed to read uploaded file")
		}
		defer body.Close()

		upload = &services.Upload{Filename: file.Filename, Body: body}
	}

	video, err := h.catalog.AddVideo(c.UserContext(), rc, courseID, input, upload)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return response.ServiceUnavailable(c, "Video storage is not configured")
		}
		return response.FromError(c, h.log, err)
	}
	return response.Created(c, video)
}

// WatchVideo handles GET /api/v1/videos/:id
func (h *VideoHandler) WatchVideo(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	videoID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid video ID")
	}

	view, err := h.progress.WatchVideo(c.UserContext(), rc, videoID)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, view)
}

// RecordProgress handles POST /api/v1/videos/:id/progress
func (h *VideoHandler) RecordProgress(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	videoID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid video ID")
	}

	var req ProgressRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	update, err := h.progress.RecordWatchProgress(c.UserContext(), rc, videoID, req.Completed, req.WatchedSeconds)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, update)
}
