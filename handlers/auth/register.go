package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services"
	authutil "github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
	"github.com/sahilchouksey/elearning-api/utils/response"
	"github.com/sahilchouksey/elearning-api/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	accounts             *services.AccountService
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
	log                  *logger.Logger
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(
	accounts *services.AccountService,
	jwtManager *authutil.JWTManager,
	blacklistService *authutil.BlacklistService,
	bruteForceProtection *middleware.BruteForceProtection,
	log *logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:             accounts,
		jwtManager:           jwtManager,
		blacklistService:     blacklistService,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
		log:                  log,
	}
}

// RegisterRequest represents a student registration request
type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Username       string `json:"username" validate:"omitempty,min=3,max=150"`
	Password       string `json:"password" validate:"required,min=8"`
	Name           string `json:"name" validate:"required,min=2,max=255"`
	Phone          string `json:"phone" validate:"omitempty,max=20"`
	SkypeID        string `json:"skype_id" validate:"omitempty,max=100"`
	WhatsappNumber string `json:"whatsapp_number" validate:"omitempty,max=20"`
	CountryID      *uint  `json:"country_id" validate:"omitempty,min=1"`
	StateID        *uint  `json:"state_id" validate:"omitempty,min=1"`
	DistrictID     *uint  `json:"district_id" validate:"omitempty,min=1"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User *model.User `json:"user"`
	authutil.TokenPair
}

// toAccount maps the request onto service input
func (r RegisterRequest) toAccount() services.NewAccount {
	return services.NewAccount{
		Email:          r.Email,
		Username:       validation.SanitizeString(r.Username),
		Password:       r.Password,
		Name:           validation.SanitizeString(r.Name),
		Phone:          validation.SanitizeString(r.Phone),
		SkypeID:        validation.SanitizeString(r.SkypeID),
		WhatsappNumber: validation.SanitizeString(r.WhatsappNumber),
		CountryID:      r.CountryID,
		StateID:        r.StateID,
		DistrictID:     r.DistrictID,
	}
}

// Register handles POST /api/v1/auth/register. New accounts are always students.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.Username != "" {
		if ok, msg := validation.ValidateUsername(req.Username); !ok {
			return response.BadRequest(c, msg)
		}
	}

	user, err := h.accounts.Register(c.UserContext(), req.toAccount())
	if err != nil {
		return response.FromError(c, h.log, err)
	}

	tokens, err := h.jwtManager.IssuePair(user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	h.log.Info("user registered", "user_id", user.ID)
	return response.Created(c, AuthResponse{User: user, TokenPair: *tokens})
}
