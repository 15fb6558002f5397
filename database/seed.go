package database

import (
	"fmt"
	"os"

	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *logger.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	if err := s.SeedManager(); err != nil {
		return fmt.Errorf("failed to seed manager account: %w", err)
	}

	if err := s.SeedCategories(); err != nil {
		return fmt.Errorf("failed to seed course categories: %w", err)
	}

	s.log.Info("database seeding completed")
	return nil
}

// SeedManager creates the first manager account from MANAGER_EMAIL / MANAGER_PASSWORD.
// Trainers and further managers are created through the API by a manager.
func (s *Seeder) SeedManager() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleManager).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		s.log.Debug("manager account already exists, skipping")
		return nil
	}

	email := os.Getenv("MANAGER_EMAIL")
	password := os.Getenv("MANAGER_PASSWORD")
	if email == "" || password == "" {
		s.log.Warn("MANAGER_EMAIL and MANAGER_PASSWORD not set, skipping manager creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	manager := &model.User{
		Email:        email,
		Username:     "manager",
		PasswordHash: passwordHash,
		Name:         "Platform Manager",
		Role:         model.RoleManager,
	}

	if err := s.db.Create(manager).Error; err != nil {
		return err
	}

	s.log.Info("created manager account", "user_id", manager.ID)
	return nil
}

// SeedCategories inserts the default catalog categories, leaving existing ones untouched
func (s *Seeder) SeedCategories() error {
	categories := []model.CourseCategory{
		{Name: "Programming", Description: "Software development and computer science"},
		{Name: "Data Science", Description: "Statistics, machine learning and analytics"},
		{Name: "Design", Description: "Graphic, product and UX design"},
		{Name: "Business", Description: "Management, marketing and finance"},
		{Name: "Languages", Description: "Spoken language courses"},
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&categories).Error
}
