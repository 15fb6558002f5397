package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword handles POST /api/v1/auth/change-password. Every existing token stops working.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	rc, ok := middleware.GetRequestContext(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if ok, problems := validation.ValidatePassword(req.NewPassword); !ok {
		return response.BadRequest(c, problems[0])
	}

	if err := h.accounts.ChangePassword(c.UserContext(), rc.UserID, req.OldPassword, req.NewPassword); err != nil {
		return response.FromError(c, h.log, err)
	}

	return response.SuccessWithMessage(c, "Password changed, please log in again", nil)
}
