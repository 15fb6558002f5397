package auth

import (
	"context"
	"time"

	"github.com/sahilchouksey/elearning-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevokeReason is recorded with each revoked token id
type RevokeReason string

const (
	ReasonLogout  RevokeReason = "logout"
	ReasonRotated RevokeReason = "token_refresh"
)

// fallbackTTL bounds blacklist rows for tokens that carry no exp claim
const fallbackTTL = 7 * 24 * time.Hour

// BlacklistService tracks individually revoked tokens by jti. Revoking every token of a
// user is done by bumping User.TokenVersion instead.
type BlacklistService struct {
	db *gorm.DB
}

func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db}
}

// Revoke blacklists the token until it would have expired. Revoking twice is a no-op.
func (s *BlacklistService) Revoke(ctx context.Context, claims *Claims, reason RevokeReason) error {
	expiresAt := time.Now().Add(fallbackTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token_id"}}, DoNothing: true}).
		Create(&model.JWTTokenBlacklist{
			TokenID:   claims.ID,
			UserID:    claims.UserID,
			Reason:    string(reason),
			ExpiresAt: expiresAt,
		}).Error
}

// IsRevoked reports whether the token id is blacklisted and not yet expired
func (s *BlacklistService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("token_id = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).Error
	return count > 0, err
}

// CleanupExpiredTokens deletes rows whose token has expired anyway and returns how many went
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}
