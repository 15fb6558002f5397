package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services/storage"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreamURLTTL is how long a signed video URL stays valid
const StreamURLTTL = time.Hour

// CourseProgress is the derived completion state of one student in one course
type CourseProgress struct {
	CourseID   uint    `json:"course_id"`
	Completed  int64   `json:"completed_videos"`
	Total      int64   `json:"total_videos"`
	Percentage float64 `json:"percentage"`
}

// ProgressPercentage returns completed/total*100 rounded to two decimals, 0 when total is 0
func ProgressPercentage(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return roundTo2(float64(completed) / float64(total) * 100)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProgressUpdate is returned after recording watch activity
type ProgressUpdate struct {
	Progress       *model.VideoProgress `json:"progress"`
	CourseProgress CourseProgress       `json:"course_progress"`
	NextVideo      *model.Video         `json:"next_video,omitempty"`
}

// PlaylistItem is a course video with the viewer's completion flag
type PlaylistItem struct {
	model.Video
	Completed bool `json:"completed"`
}

// WatchView is everything the watch screen shows for one video
type WatchView struct {
	Video          *model.Video         `json:"video"`
	Course         *model.Course        `json:"course"`
	Progress       *model.VideoProgress `json:"progress"`
	CourseProgress CourseProgress       `json:"course_progress"`
	NextVideo      *model.Video         `json:"next_video,omitempty"`
	Playlist       []PlaylistItem       `json:"playlist"`
	Ratings        []model.Rating       `json:"ratings"`
	AverageRating  float64              `json:"average_rating"`
	MyRating       *model.Rating        `json:"my_rating,omitempty"`
	StreamURL      string               `json:"stream_url,omitempty"`
	StreamExpires  *time.Time           `json:"stream_url_expires_at,omitempty"`
}

// ProgressService tracks per-video watch state for enrolled students
type ProgressService struct {
	db    *gorm.DB
	blobs storage.BlobStore
	log   *logger.Logger
}

// NewProgressService creates a new progress service. blobs may be nil when no bucket is configured.
func NewProgressService(db *gorm.DB, blobs storage.BlobStore, log *logger.Logger) *ProgressService {
	return &ProgressService{
		db:    db,
		blobs: blobs,
		log:   log.With("component", "progress"),
	}
}

// RecordWatchProgress stores a watch interaction. Completion is monotonic and watched seconds only grow.
func (s *ProgressService) RecordWatchProgress(ctx context.Context, rc auth.RequestContext, videoID uint, markCompleted bool, watchedSeconds int) (*ProgressUpdate, error) {
	if !rc.Can(auth.CapWatchVideo) {
		return nil, ErrForbidden
	}

	video, err := s.loadVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	update := &ProgressUpdate{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrolled, err := isEnrolled(tx, rc.UserID, video.CourseID)
		if err != nil {
			return err
		}
		if !enrolled {
			return ErrNotEnrolled
		}

		progress, err := upsertProgress(tx, rc.UserID, video.ID, markCompleted, watchedSeconds)
		if err != nil {
			return err
		}
		update.Progress = progress

		cp, err := courseProgress(tx, rc.UserID, video.CourseID)
		if err != nil {
			return err
		}
		update.CourseProgress = cp

		// Finishing the last video completes the course
		if cp.Total > 0 && cp.Completed == cp.Total {
			err := tx.Model(&model.Enrollment{}).
				Where("student_id = ? AND course_id = ? AND completed = ?", rc.UserID, video.CourseID, false).
				Update("completed", true).Error
			if err != nil {
				return fmt.Errorf("failed to complete enrollment: %w", err)
			}
		}

		next, err := nextVideo(tx, video.CourseID, video.Order)
		if err != nil {
			return err
		}
		update.NextVideo = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ProgressUpdates.WithLabelValues(strconv.FormatBool(update.Progress.Completed)).Inc()
	return update, nil
}

// CourseProgress returns the completion state of a student in a course
func (s *ProgressService) CourseProgress(ctx context.Context, studentID, courseID uint) (CourseProgress, error) {
	return courseProgress(s.db.WithContext(ctx), studentID, courseID)
}

// ComputeNextVideo returns the video with the smallest order strictly greater than currentOrder, or nil.
// Equal orders resolve to the lowest id.
func (s *ProgressService) ComputeNextVideo(ctx context.Context, courseID uint, currentOrder int) (*model.Video, error) {
	return nextVideo(s.db.WithContext(ctx), courseID, currentOrder)
}

// WatchVideo opens a video for an enrolled student and touches its progress row
func (s *ProgressService) WatchVideo(ctx context.Context, rc auth.RequestContext, videoID uint) (*WatchView, error) {
	if !rc.Can(auth.CapWatchVideo) {
		return nil, ErrForbidden
	}

	video, err := s.loadVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	view := &WatchView{Video: video}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrolled, err := isEnrolled(tx, rc.UserID, video.CourseID)
		if err != nil {
			return err
		}
		if !enrolled {
			return ErrNotEnrolled
		}

		if view.Progress, err = upsertProgress(tx, rc.UserID, video.ID, false, 0); err != nil {
			return err
		}
		if view.CourseProgress, err = courseProgress(tx, rc.UserID, video.CourseID); err != nil {
			return err
		}
		if view.NextVideo, err = nextVideo(tx, video.CourseID, video.Order); err != nil {
			return err
		}

		var course model.Course
		if err := tx.Preload("Trainer").First(&course, video.CourseID).Error; err != nil {
			return fmt.Errorf("failed to load course: %w", err)
		}
		view.Course = &course

		if view.Playlist, err = playlist(tx, rc.UserID, video.CourseID); err != nil {
			return err
		}

		if err := tx.Preload("Student").
			Where("video_id = ?", video.ID).
			Order("created_at DESC").
			Find(&view.Ratings).Error; err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view.AverageRating = averageRating(view.Ratings)
	for i := range view.Ratings {
		if view.Ratings[i].StudentID == rc.UserID {
			view.MyRating = &view.Ratings[i]
		}
	}

	if s.blobs != nil && video.StorageKey != "" {
		url, err := s.blobs.PresignedURL(video.StorageKey, StreamURLTTL)
		if err != nil {
			// The page still renders; the player shows the file as unavailable
			s.log.Warn("failed to sign video url", "video_id", video.ID, "error", err)
		} else {
			expires := time.Now().Add(StreamURLTTL)
			view.StreamURL = url
			view.StreamExpires = &expires
		}
	}

	return view, nil
}

func (s *ProgressService) loadVideo(ctx context.Context, videoID uint) (*model.Video, error) {
	var video model.Video
	if err := s.db.WithContext(ctx).First(&video, videoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to load video: %w", err)
	}
	return &video, nil
}

// upsertProgress atomically creates or updates the (student, video) row
func upsertProgress(tx *gorm.DB, studentID, videoID uint, markCompleted bool, watchedSeconds int) (*model.VideoProgress, error) {
	if watchedSeconds < 0 {
		watchedSeconds = 0
	}
	now := time.Now()

	assignments := map[string]interface{}{"last_watched_at": now}
	if markCompleted {
		assignments["completed"] = true
	}
	if watchedSeconds > 0 {
		assignments["watched_seconds"] = gorm.Expr(
			"CASE WHEN video_progress.watched_seconds < ? THEN ? ELSE video_progress.watched_seconds END",
			watchedSeconds, watchedSeconds,
		)
	}

	row := model.VideoProgress{
		StudentID:      studentID,
		VideoID:        videoID,
		Completed:      markCompleted,
		WatchedSeconds: watchedSeconds,
		LastWatchedAt:  now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "video_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	var progress model.VideoProgress
	if err := tx.Where("student_id = ? AND video_id = ?", studentID, videoID).First(&progress).Error; err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return &progress, nil
}

func courseProgress(db *gorm.DB, studentID, courseID uint) (CourseProgress, error) {
	cp := CourseProgress{CourseID: courseID}

	if err := db.Model(&model.Video{}).Where("course_id = ?", courseID).Count(&cp.Total).Error; err != nil {
		return cp, fmt.Errorf("failed to count videos: %w", err)
	}
	if cp.Total == 0 {
		return cp, nil
	}

	err := db.Model(&model.VideoProgress{}).
		Joins("JOIN videos ON videos.id = video_progress.video_id").
		Where("videos.course_id = ? AND video_progress.student_id = ? AND video_progress.completed = ?", courseID, studentID, true).
		Count(&cp.Completed).Error
	if err != nil {
		return cp, fmt.Errorf("failed to count completed videos: %w", err)
	}

	cp.Percentage = ProgressPercentage(cp.Completed, cp.Total)
	return cp, nil
}

func nextVideo(db *gorm.DB, courseID uint, currentOrder int) (*model.Video, error) {
	var video model.Video
	err := db.Where("course_id = ? AND sort_order > ?", courseID, currentOrder).
		Order("sort_order ASC").
		Order("id ASC").
		First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find next video: %w", err)
	}
	return &video, nil
}

func playlist(db *gorm.DB, studentID, courseID uint) ([]PlaylistItem, error) {
	var videos []model.Video
	if err := db.Where("course_id = ?", courseID).Order("sort_order ASC").Order("id ASC").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}

	var completedIDs []uint
	err := db.Model(&model.VideoProgress{}).
		Joins("JOIN videos ON videos.id = video_progress.video_id").
		Where("videos.course_id = ? AND video_progress.student_id = ? AND video_progress.completed = ?", courseID, studentID, true).
		Pluck("video_progress.video_id", &completedIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load completed videos: %w", err)
	}

	done := make(map[uint]bool, len(completedIDs))
	for _, id := range completedIDs {
		done[id] = true
	}

	items := make([]PlaylistItem, 0, len(videos))
	for _, v := range videos {
		items = append(items, PlaylistItem{Video: v, Completed: done[v.ID]})
	}
	return items, nil
}
