package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// UpdateProfileRequest represents a profile update request; omitted fields are left unchanged
type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=255"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	SkypeID        *string `json:"skype_id" validate:"omitempty,max=100"`
	WhatsappNumber *string `json:"whatsapp_number" validate:"omitempty,max=20"`
	CountryID      *uint   `json:"country_id" validate:"omitempty,min=1"`
	StateID        *uint   `json:"state_id" validate:"omitempty,min=1"`
	DistrictID     *uint   `json:"district_id" validate:"omitempty,min=1"`
}

// GetProfile handles GET /api/v1/auth/profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	rc, ok := middleware.GetRequestContext(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	user, err := h.accounts.Profile(c.UserContext(), rc.UserID)
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, user)
}

// UpdateProfile handles PUT /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	rc, ok := middleware.GetRequestContext(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	user, err := h.accounts.UpdateProfile(c.UserContext(), rc.UserID, services.ProfileUpdate{
		Name:           sanitized(req.Name),
		Phone:          sanitized(req.Phone),
		SkypeID:        sanitized(req.SkypeID),
		WhatsappNumber: sanitized(req.WhatsappNumber),
		CountryID:      req.CountryID,
		StateID:        req.StateID,
		DistrictID:     req.DistrictID,
	})
	if err != nil {
		return response.FromError(c, h.log, err)
	}
	return response.Success(c, user)
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := validation.SanitizeString(*s)
	return &v
}
