package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingService records student feedback on videos and trainers
type RatingService struct {
	db *gorm.DB
}

// NewRatingService creates a new rating service
func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{db: db}
}

// RateVideo creates or replaces the caller's rating of a video
func (s *RatingService) RateVideo(ctx context.Context, rc auth.RequestContext, videoID uint, stars int, comment string) (*model.Rating, error) {
	if !rc.Can(auth.CapRate) {
		return nil, ErrForbidden
	}
	if !validRating(stars) {
		return nil, ErrInvalidRating
	}

	var video model.Video
	if err := s.db.WithContext(ctx).First(&video, videoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to load video: %w", err)
	}

	rating := &model.Rating{
		StudentID: rc.UserID,
		VideoID:   &video.ID,
		Rating:    stars,
		Comment:   validation.SanitizeText(comment),
	}
	return s.upsert(ctx, rating, "video_id")
}

// RateTrainer creates or replaces the caller's rating of a trainer
func (s *RatingService) RateTrainer(ctx context.Context, rc auth.RequestContext, trainerID uint, stars int, comment string) (*model.Rating, error) {
	if !rc.Can(auth.CapRate) {
		return nil, ErrForbidden
	}
	if !validRating(stars) {
		return nil, ErrInvalidRating
	}

	var trainer model.User
	err := s.db.WithContext(ctx).Where("id = ? AND role = ?", trainerID, model.RoleTrainer).First(&trainer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTrainerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trainer: %w", err)
	}

	rating := &model.Rating{
		StudentID: rc.UserID,
		TrainerID: &trainer.ID,
		Rating:    stars,
		Comment:   validation.SanitizeText(comment),
	}
	return s.upsert(ctx, rating, "trainer_id")
}

// TrainerRatings lists ratings of a trainer, newest first, with the average
func (s *RatingService) TrainerRatings(ctx context.Context, trainerID uint) ([]model.Rating, float64, error) {
	var ratings []model.Rating
	err := s.db.WithContext(ctx).
		Preload("Student").
		Where("trainer_id = ?", trainerID).
		Order("updated_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load ratings: %w", err)
	}
	return ratings, averageRating(ratings), nil
}

// upsert writes the rating keyed on (student_id, target); a later rating overwrites value and comment
func (s *RatingService) upsert(ctx context.Context, rating *model.Rating, target string) (*model.Rating, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: target}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"rating":     rating.Rating,
			"comment":    rating.Comment,
			"updated_at": time.Now(),
		}),
	}).Create(rating).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	var saved model.Rating
	err = s.db.WithContext(ctx).
		Where("student_id = ? AND "+target+" = ?", rating.StudentID, targetID(rating)).
		First(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rating: %w", err)
	}
	return &saved, nil
}

func targetID(r *model.Rating) uint {
	if r.VideoID != nil {
		return *r.VideoID
	}
	return *r.TrainerID
}

func validRating(stars int) bool {
	return stars >= model.MinRating && stars <= model.MaxRating
}

func averageRating(ratings []model.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var total int
	for _, r := range ratings {
		total += r.Rating
	}
	return roundTo2(float64(total) / float64(len(ratings)))
}
