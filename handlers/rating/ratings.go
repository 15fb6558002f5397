package rating

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/handlers"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// RatingHandler handles video and trainer feedback
type RatingHandler struct {
	ratings   *services.RatingService
	validator *validation.Validator
	log       *logger.Logger
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratings *services.RatingService, log *logger.Logger) *RatingHandler {
	return &RatingHandler{
		ratings:   ratings,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// RateRequest is a 1-5 star rating with an optional comment
type RateRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// RatingsResponse lists ratings with their average
type RatingsResponse struct {
	Ratings       interface{} `json:"ratings"`
	AverageRating float64     `json:"average_rating"`
}

func (h *RatingHandler) parse(c *fiber.Ctx) (*RateRequest, error) {
	var req RateRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return nil, response.ValidationError(c, err)
	}
	return &req, nil
}

// RateVideo handles POST /api/v1/videos/:id/rating
func (h *RatingHandler) RateVideo(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	videoID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid video ID")
	}

	req, err := h.parse(c)
	if req == nil {
		return err
	}

	rating, err := h.ratings.RateVideo(c.UserContext(), rc, videoID, req.Rating, req.Comment)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, rating)
}

// RateTrainer handles POST /api/v1/trainers/:id/rating
func (h *RatingHandler) RateTrainer(c *fiber.Ctx) error {
	rc, _ := middleware.GetRequestContext(c)
	trainerID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid trainer ID")
	}

	req, err := h.parse(c)
	if req == nil {
		return err
	}

	rating, err := h.ratings.RateTrainer(c.UserContext(), rc, trainerID, req.Rating, req.Comment)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, rating)
}

// TrainerRatings handles GET /api/v1/trainers/:id/ratings
func (h *RatingHandler) TrainerRatings(c *fiber.Ctx) error {
	trainerID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid trainer ID")
	}

	ratings, avg, err := h.ratings.TrainerRatings(c.UserContext(), trainerID)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, RatingsResponse{Ratings: ratings, AverageRating: avg})
}
