package model

import "time"

// JWTTokenBlacklist stores revoked token ids until their natural expiry
type JWTTokenBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TokenID   string    `gorm:"column:token_id;uniqueIndex;not null;type:varchar(64)" json:"token_id"` // JWT jti claim
	UserID    uint      `gorm:"index" json:"user_id"`
	Reason    string    `gorm:"type:varchar(50)" json:"reason"` // logout, token_refresh, password_change
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for JWTTokenBlacklist
func (JWTTokenBlacklist) TableName() string {
	return "jwt_token_blacklist"
}
