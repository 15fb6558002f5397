package model

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentStatus is the lifecycle state of a Payment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentStatuses lists every status in display order
var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded}

// Valid reports whether s is a known status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Payment records a purchase attempt. Rows are append-only except for status transitions;
// a student may hold several pending rows for the same course.
type Payment struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	StudentID        uint              `gorm:"not null;index:idx_payments_student_course" json:"student_id"`
	CourseID         uint              `gorm:"not null;index:idx_payments_student_course" json:"course_id"`
	Amount           float64           `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency         string            `gorm:"type:varchar(10);not null;default:'usd'" json:"currency"`
	GatewaySessionID *string           `gorm:"type:varchar(255);uniqueIndex" json:"gateway_session_id,omitempty"`
	GatewayPaymentID *string           `gorm:"type:varchar(255);uniqueIndex" json:"gateway_payment_id,omitempty"`
	Status           PaymentStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
	LastCheckedAt    *time.Time        `gorm:"index" json:"last_checked_at,omitempty"` // last reconciliation lookup
	CreatedAt        time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	// Relationships
	Student *User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course  *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}
