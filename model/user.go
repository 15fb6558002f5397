package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Role decides which parts of the platform are reachable.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	Username       string         `gorm:"uniqueIndex;type:varchar(150);not null" json:"username"`
	PasswordHash   string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name           string         `gorm:"not null" json:"name"`
	Role           Role           `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	Phone          string         `gorm:"type:varchar(20)" json:"phone,omitempty"`
	SkypeID        string         `gorm:"type:varchar(100)" json:"skype_id,omitempty"`
	WhatsappNumber string         `gorm:"type:varchar(20)" json:"whatsapp_number,omitempty"`
	CountryID      *uint          `gorm:"index" json:"country_id,omitempty"`
	StateID        *uint          `gorm:"index" json:"state_id,omitempty"`
	DistrictID     *uint          `gorm:"index" json:"district_id,omitempty"`
	TokenVersion   int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Country        *Country            `gorm:"foreignKey:CountryID;constraint:OnDelete:SET NULL" json:"country,omitempty"`
	State          *State              `gorm:"foreignKey:StateID;constraint:OnDelete:SET NULL" json:"state,omitempty"`
	District       *District           `gorm:"foreignKey:DistrictID;constraint:OnDelete:SET NULL" json:"district,omitempty"`
	Enrollments    []Enrollment        `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Payments       []Payment           `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// DisplayName falls back to the username when no name was given
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
