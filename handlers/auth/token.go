package auth

import (
	"github.com/gofiber/fiber/v2"
	authutil "github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken handles POST /api/v1/auth/refresh. The presented refresh token is revoked.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}
	if claims.TokenType != authutil.TokenTypeRefresh {
		return response.Unauthorized(c, "Invalid token type")
	}

	ctx := c.UserContext()
	isRevoked, err := h.blacklistService.IsRevoked(ctx, claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	// Load user to get current token version
	user, err := h.accounts.Profile(ctx, claims.UserID)
	if err != nil {
		return response.Unauthorized(c, "User not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	tokens, err := h.jwtManager.IssuePair(user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	if err := h.blacklistService.Revoke(ctx, claims, authutil.ReasonRotated); err != nil {
		// The old token expires on its own
		h.log.Warn("failed to revoke refresh token", "user_id", user.ID, "error", err)
	}

	return response.Success(c, tokens)
}

// Logout handles POST /api/v1/auth/logout by blacklisting the access token
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if err := h.blacklistService.Revoke(c.UserContext(), claims, authutil.ReasonLogout); err != nil {
		return response.FromError(c, h.log, err)
	}

	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}
