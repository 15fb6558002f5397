package model

import "time"

// Enrollment links a student to a course. The composite primary key guarantees
// at most one row per (student, course).
type Enrollment struct {
	StudentID  uint      `gorm:"primaryKey;autoIncrement:false" json:"student_id"`
	CourseID   uint      `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
	Completed  bool      `gorm:"default:false" json:"completed"`

	// Relationships
	Student *User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course  *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "student_courses"
}

// VideoProgress is the per-student, per-video watch record
type VideoProgress struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_progress_student_video" json:"student_id"`
	VideoID        uint      `gorm:"not null;uniqueIndex:idx_progress_student_video;index" json:"video_id"`
	Completed      bool      `gorm:"default:false" json:"completed"`
	WatchedSeconds int       `gorm:"default:0" json:"watched_seconds"`
	LastWatchedAt  time.Time `gorm:"not null" json:"last_watched_at"`

	// Relationships
	Student *User  `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Video   *Video `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for VideoProgress
func (VideoProgress) TableName() string {
	return "video_progress"
}
