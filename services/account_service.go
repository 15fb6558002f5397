package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"gorm.io/gorm"
)

// NewAccount carries registration fields
type NewAccount struct {
	Email          string
	Username       string
	Password       string
	Name           string
	Phone          string
	SkypeID        string
	WhatsappNumber string
	CountryID      *uint
	StateID        *uint
	DistrictID     *uint
}

// ProfileUpdate carries editable profile fields; nil leaves a field unchanged
type ProfileUpdate struct {
	Name           *string
	Phone          *string
	SkypeID        *string
	WhatsappNumber *string
	CountryID      *uint
	StateID        *uint
	DistrictID     *uint
}

// AccountService manages user accounts
type AccountService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewAccountService creates a new account service
func NewAccountService(db *gorm.DB, log *logger.Logger) *AccountService {
	return &AccountService{db: db, log: log.With("component", "accounts")}
}

// Register creates a student account
func (s *AccountService) Register(ctx context.Context, input NewAccount) (*model.User, error) {
	return s.create(ctx, input, model.RoleStudent)
}

// CreateTrainer creates a trainer account on behalf of a manager
func (s *AccountService) CreateTrainer(ctx context.Context, rc auth.RequestContext, input NewAccount) (*model.User, error) {
	if !rc.Can(auth.CapManageTrainers) {
		return nil, ErrForbidden
	}
	user, err := s.create(ctx, input, model.RoleTrainer)
	if err != nil {
		return nil, err
	}
	s.log.Info("trainer created", "trainer_id", user.ID, "manager_id", rc.UserID)
	return user, nil
}

func (s *AccountService) create(ctx context.Context, input NewAccount, role model.Role) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = email
	}

	db := s.db.WithContext(ctx)

	// Check if user already exists
	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	if err := db.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	if err := s.CheckGeography(ctx, input.CountryID, input.StateID, input.DistrictID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if auth.IsWeakPassword(err) {
		return nil, ErrWeakPassword
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:          email,
		Username:       username,
		PasswordHash:   hash,
		Name:           strings.TrimSpace(input.Name),
		Role:           role,
		Phone:          input.Phone,
		SkypeID:        input.SkypeID,
		WhatsappNumber: input.WhatsappNumber,
		CountryID:      input.CountryID,
		StateID:        input.StateID,
		DistrictID:     input.DistrictID,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords fail the same way.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Upgrade hashes made under an older cost while the plaintext is at hand
	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			err = s.db.WithContext(ctx).Model(&user).UpdateColumn("password_hash", hash).Error
			if err != nil {
				s.log.Warn("failed to rehash password", "user_id", user.ID, "error", err)
			}
		}
	}
	return &user, nil
}

// ChangePassword replaces the caller's password and invalidates every token issued before
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(next)
	if auth.IsWeakPassword(err) {
		return ErrWeakPassword
	}
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash": hash,
		"token_version": gorm.Expr("token_version + ?", 1),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.log.Info("password changed", "user_id", userID)
	return nil
}

// Profile returns a user with geographic references loaded
func (s *AccountService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Country").Preload("State").Preload("District").
		First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies a partial update. The resulting country, state and district must agree.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Name != nil {
		updates["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.SkypeID != nil {
		updates["skype_id"] = *update.SkypeID
	}
	if update.WhatsappNumber != nil {
		updates["whatsapp_number"] = *update.WhatsappNumber
	}

	countryID, stateID, districtID := user.CountryID, user.StateID, user.DistrictID
	if update.CountryID != nil {
		countryID = update.CountryID
		updates["country_id"] = countryID
	}
	if update.StateID != nil {
		stateID = update.StateID
		updates["state_id"] = stateID
	}
	if update.DistrictID != nil {
		districtID = update.DistrictID
		updates["district_id"] = districtID
	}
	if err := s.CheckGeography(ctx, countryID, stateID, districtID); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return s.Profile(ctx, userID)
}

// CheckGeography verifies that a state belongs to the country and a district to the state
func (s *AccountService) CheckGeography(ctx context.Context, countryID, stateID, districtID *uint) error {
	db := s.db.WithContext(ctx)

	if countryID != nil {
		var count int64
		if err := db.Model(&model.Country{}).Where("id = ?", *countryID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check country: %w", err)
		}
		if count == 0 {
			return ErrInvalidGeography
		}
	}

	if stateID != nil {
		if countryID == nil {
			return ErrInvalidGeography
		}
		var state model.State
		if err := db.First(&state, *stateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidGeography
			}
			return fmt.Errorf("failed to check state: %w", err)
		}
		if state.CountryID != *countryID {
			return ErrInvalidGeography
		}
	}

	if districtID != nil {
		if stateID == nil {
			return ErrInvalidGeography
		}
		var district model.District
		if err := db.First(&district, *districtID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidGeography
			}
			return fmt.Errorf("failed to check district: %w", err)
		}
		if district.StateID != *stateID {
			return ErrInvalidGeography
		}
	}

	return nil
}
