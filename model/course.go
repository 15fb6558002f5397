package model

import (
	"time"

	"gorm.io/gorm"
)

// CourseCategory groups courses in the catalog (e.g., "Programming", "Design")
type CourseCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
}

// TableName specifies the table name for CourseCategory
func (CourseCategory) TableName() string {
	return "course_categories"
}

// Course is a priced, trainer-owned sequence of video lessons
type Course struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"type:varchar(200);not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	CategoryID    *uint          `gorm:"index" json:"category_id"`
	TrainerID     *uint          `gorm:"index" json:"trainer_id"` // Unassigned courses exist
	Price         float64        `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	DurationHours int            `gorm:"default:0" json:"duration_hours"`
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`

	// Relationships
	Category *CourseCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Trainer  *User           `gorm:"foreignKey:TrainerID;constraint:OnDelete:SET NULL" json:"trainer,omitempty"`
	Videos   []Video         `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"videos,omitempty"`
}

// IsFree reports whether enrolling requires no payment
func (c *Course) IsFree() bool {
	return c.Price <= 0
}

// Video is a single lesson. Order determines sequence and next-video lookups.
type Video struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	CourseID        uint      `gorm:"not null;index:idx_videos_course_order" json:"course_id"`
	Title           string    `gorm:"type:varchar(200);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	StorageKey      string    `gorm:"type:varchar(500)" json:"-"` // Opaque blob reference
	DurationMinutes int       `gorm:"not null;default:0" json:"duration_minutes"`
	Order           int       `gorm:"column:sort_order;not null;default:0;index:idx_videos_course_order" json:"order"`

	// Relationships
	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}
