package model

import "time"

// Rating is a 1-5 star review a student leaves on either a video or a trainer, never both.
// Unique per (student, video) and per (student, trainer); re-rating overwrites.
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_ratings_student_video;uniqueIndex:idx_ratings_student_trainer" json:"student_id"`
	VideoID   *uint     `gorm:"uniqueIndex:idx_ratings_student_video;index" json:"video_id,omitempty"`
	TrainerID *uint     `gorm:"uniqueIndex:idx_ratings_student_trainer;index" json:"trainer_id,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`

	// Relationships
	Student *User  `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Video   *Video `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"video,omitempty"`
	Trainer *User  `gorm:"foreignKey:TrainerID;constraint:OnDelete:CASCADE" json:"trainer,omitempty"`
}

const (
	MinRating = 1
	MaxRating = 5
)
