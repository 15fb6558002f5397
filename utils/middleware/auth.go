package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"gorm.io/gorm"
)

const (
	localUser           = "user"
	localClaims         = "claims"
	localRequestContext = "request_context"
)

// AuthMiddleware handles JWT authentication and role capability checks
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	policy           *auth.Policy
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, policy *auth.Policy, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		policy:           policy,
		db:               db,
	}
}

// Required is middleware that requires a valid access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return response.Unauthorized(c, "Missing or malformed authorization token")
		}

		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		if claims.TokenType != auth.TokenTypeAccess {
			return response.Unauthorized(c, "Invalid token type")
		}

		// Check if token is revoked (blacklisted)
		isRevoked, err := m.blacklistService.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check token status")
		}
		if isRevoked {
			return response.Unauthorized(c, "Token has been revoked")
		}

		// Load user and verify token version; the stored role wins over the claim
		var user model.User
		if err := m.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.Unauthorized(c, "User not found")
			}
			return response.InternalServerError(c, "Failed to load user")
		}

		if user.TokenVersion != claims.TokenVersion {
			return response.Unauthorized(c, "Token has been invalidated")
		}

		c.Locals(localUser, &user)
		c.Locals(localClaims, claims)
		c.Locals(localRequestContext, auth.NewRequestContext(user.ID, user.Role, m.policy))

		return c.Next()
	}
}

// RequireCapability rejects callers whose role lacks capability cap. Must run after Required.
func (m *AuthMiddleware) RequireCapability(cap auth.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := GetRequestContext(c)
		if !ok {
			return response.Unauthorized(c, "Not authenticated")
		}
		if !rc.Can(cap) {
			return response.Forbidden(c, "Your role does not allow this action")
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// GetRequestContext returns the caller identity set by Required
func GetRequestContext(c *fiber.Ctx) (auth.RequestContext, bool) {
	rc, ok := c.Locals(localRequestContext).(auth.RequestContext)
	return rc, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals(localUser).(*model.User)
	return u, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(localClaims).(*auth.Claims)
	return claims, ok
}
