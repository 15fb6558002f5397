package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services/storage"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseFilter narrows a catalog listing
type CourseFilter struct {
	Search     string
	CategoryID uint
	Offset     int
	Limit      int
}

// CourseSummary is a catalog entry
type CourseSummary struct {
	model.Course
	VideoCount   int64 `json:"video_count"`
	StudentCount int64 `json:"student_count"`
}

// CourseDetail is the course page
type CourseDetail struct {
	Course     *model.Course   `json:"course"`
	VideoCount int             `json:"video_count"`
	IsEnrolled bool            `json:"is_enrolled"`
	Progress   *CourseProgress `json:"progress,omitempty"`
}

// TrainerProfile is the public trainer page
type TrainerProfile struct {
	Trainer       *model.User    `json:"trainer"`
	Courses       []model.Course `json:"courses"`
	Ratings       []model.Rating `json:"ratings"`
	AverageRating float64        `json:"average_rating"`
}

// CourseInput carries the editable course fields
type CourseInput struct {
	Title         string
	Description   string
	CategoryID    *uint
	TrainerID     *uint
	Price         float64
	DurationHours int
	IsActive      *bool
}

// VideoInput carries the fields of a new video
type VideoInput struct {
	Title           string
	Description     string
	DurationMinutes int
	Order           int
}

// Upload is a video file received from a client
type Upload struct {
	Filename string
	Body     io.ReadSeeker
}

// CatalogService manages courses, categories and videos
type CatalogService struct {
	db    *gorm.DB
	blobs storage.BlobStore
	log   *logger.Logger
}

// NewCatalogService creates a new catalog service. blobs may be nil, which disables uploads.
func NewCatalogService(db *gorm.DB, blobs storage.BlobStore, log *logger.Logger) *CatalogService {
	return &CatalogService{
		db:    db,
		blobs: blobs,
		log:   log.With("component", "catalog"),
	}
}

// BrowseCourses lists active courses. Students do not see courses they are already enrolled in.
func (s *CatalogService) BrowseCourses(ctx context.Context, rc auth.RequestContext, filter CourseFilter) ([]CourseSummary, int64, error) {
	if !rc.Can(auth.CapBrowseCatalog) {
		return nil, 0, ErrForbidden
	}

	query := s.db.WithContext(ctx).Model(&model.Course{}).Where("courses.is_active = ?", true)
	if rc.Role == model.RoleStudent {
		query = query.Where("courses.id NOT IN (?)",
			s.db.Model(&model.Enrollment{}).Select("course_id").Where("student_id = ?", rc.UserID))
	}
	return s.listCourses(ctx, query, filter)
}

// ManagerCourses lists every course including inactive ones
func (s *CatalogService) ManagerCourses(ctx context.Context, rc auth.RequestContext, filter CourseFilter) ([]CourseSummary, int64, error) {
	if !rc.Can(auth.CapManageCatalog) {
		return nil, 0, ErrForbidden
	}
	return s.listCourses(ctx, s.db.WithContext(ctx).Model(&model.Course{}), filter)
}

// likeEscaper makes user input match literally inside a LIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *CatalogService) listCourses(ctx context.Context, query *gorm.DB, filter CourseFilter) ([]CourseSummary, int64, error) {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`LOWER(courses.title) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
	}
	if filter.CategoryID != 0 {
		query = query.Where("courses.category_id = ?", filter.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var courses []model.Course
	err := query.
		Preload("Trainer").
		Preload("Category").
		Order("courses.created_at DESC").
		Order("courses.id DESC").
		Offset(filter.Offset).
		Limit(limit).
		Find(&courses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	summaries, err := summarizeCourses(s.db.WithContext(ctx), courses)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

type courseCount struct {
	CourseID uint
	Count    int64
}

// summarizeCourses attaches video and student counts to a page of courses
func summarizeCourses(db *gorm.DB, courses []model.Course) ([]CourseSummary, error) {
	ids := make([]uint, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}

	videoCounts := map[uint]int64{}
	studentCounts := map[uint]int64{}
	if len(ids) > 0 {
		var rows []courseCount
		if err := db.Model(&model.Video{}).
			Select("course_id, COUNT(*) AS count").
			Where("course_id IN ?", ids).
			Group("course_id").
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to count videos: %w", err)
		}
		for _, r := range rows {
			videoCounts[r.CourseID] = r.Count
		}

		rows = nil
		if err := db.Model(&model.Enrollment{}).
			Select("course_id, COUNT(*) AS count").
			Where("course_id IN ?", ids).
			Group("course_id").
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to count students: %w", err)
		}
		for _, r := range rows {
			studentCounts[r.CourseID] = r.Count
		}
	}

	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseSummary{Course: c, VideoCount: videoCounts[c.ID], StudentCount: studentCounts[c.ID]})
	}
	return out, nil
}

// CourseDetail returns a course with its ordered videos. Inactive courses are hidden from students who are not enrolled.
func (s *CatalogService) CourseDetail(ctx context.Context, rc auth.RequestContext, courseID uint) (*CourseDetail, error) {
	if !rc.Can(auth.CapBrowseCatalog) {
		return nil, ErrForbidden
	}

	var course model.Course
	err := s.db.WithContext(ctx).
		Preload("Trainer").
		Preload("Category").
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("id ASC")
		}).
		First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	detail := &CourseDetail{Course: &course, VideoCount: len(course.Videos)}

	if rc.Role == model.RoleStudent {
		enrolled, err := isEnrolled(s.db.WithContext(ctx), rc.UserID, course.ID)
		if err != nil {
			return nil, err
		}
		if !course.IsActive && !enrolled {
			return nil, ErrCourseNotFound
		}
		detail.IsEnrolled = enrolled
		if enrolled {
			cp, err := courseProgress(s.db.WithContext(ctx), rc.UserID, course.ID)
			if err != nil {
				return nil, err
			}
			detail.Progress = &cp
		}
	}

	return detail, nil
}

// TrainerDetails returns a trainer with their active courses and ratings
func (s *CatalogService) TrainerDetails(ctx context.Context, trainerID uint) (*TrainerProfile, error) {
	trainer, err := s.loadTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	profile := &TrainerProfile{Trainer: trainer}
	if err := s.db.WithContext(ctx).
		Where("trainer_id = ? AND is_active = ?", trainer.ID, true).
		Order("title ASC").
		Find(&profile.Courses).Error; err != nil {
		return nil, fmt.Errorf("failed to load trainer courses: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Preload("Student").
		Where("trainer_id = ?", trainer.ID).
		Order("updated_at DESC").
		Find(&profile.Ratings).Error; err != nil {
		return nil, fmt.Errorf("failed to load trainer ratings: %w", err)
	}
	profile.AverageRating = averageRating(profile.Ratings)

	return profile, nil
}

// ListCategories returns every category by name
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.CourseCategory, error) {
	var categories []model.CourseCategory
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a category; names are unique
func (s *CatalogService) CreateCategory(ctx context.Context, rc auth.RequestContext, name, description string) (*model.CourseCategory, error) {
	if !rc.Can(auth.CapManageCatalog) {
		return nil, ErrForbidden
	}

	category := &model.CourseCategory{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(category)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrCategoryExists
	}
	return category, nil
}

// CreateCourse adds a course to the catalog
func (s *CatalogService) CreateCourse(ctx context.Context, rc auth.RequestContext, input CourseInput) (*model.Course, error) {
	if !rc.Can(auth.CapManageCatalog) {
		return nil, ErrForbidden
	}
	if err := s.checkReferences(ctx, input.CategoryID, input.TrainerID); err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		CategoryID:    input.CategoryID,
		TrainerID:     input.TrainerID,
		Price:         input.Price,
		DurationHours: input.DurationHours,
		IsActive:      true,
	}
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	// A false is_active would be replaced by the column default on insert
	if input.IsActive != nil && !*input.IsActive {
		if err := s.db.WithContext(ctx).Model(course).Update("is_active", false).Error; err != nil {
			return nil, fmt.Errorf("failed to deactivate course: %w", err)
		}
		course.IsActive = false
	}

	s.log.Info("course created", "course_id", course.ID, "manager_id", rc.UserID)
	return course, nil
}

// UpdateCourse replaces the editable fields of a course
func (s *CatalogService) UpdateCourse(ctx context.Context, rc auth.RequestContext, courseID uint, input CourseInput) (*model.Course, error) {
	if !rc.Can(auth.CapManageCatalog) {
		return nil, ErrForbidden
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input.CategoryID, input.TrainerID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":          strings.TrimSpace(input.Title),
		"description":    input.Description,
		"category_id":    nullableID(input.CategoryID),
		"trainer_id":     nullableID(input.TrainerID),
		"price":          input.Price,
		"duration_hours": input.DurationHours,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	// A bare model keeps preloaded associations from being saved back over the new keys
	err = s.db.WithContext(ctx).Model(&model.Course{}).Where("id = ?", course.ID).Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return s.loadCourse(ctx, courseID)
}

// AssignTrainer sets or clears (trainerID nil) the trainer of a course
func (s *CatalogService) AssignTrainer(ctx context.Context, rc auth.RequestContext, courseID uint, trainerID *uint) (*model.Course, error) {
	if !rc.Can(auth.CapManageTrainers) {
		return nil, ErrForbidden
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if trainerID != nil {
		if _, err := s.loadTrainer(ctx, *trainerID); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Model(&model.Course{}).Where("id = ?", course.ID).
		Update("trainer_id", nullableID(trainerID)).Error
	if err != nil {
		return nil, fmt.Errorf("failed to assign trainer: %w", err)
	}

	s.log.Info("trainer assigned", "course_id", course.ID, "trainer_id", trainerID, "manager_id", rc.UserID)
	return s.loadCourse(ctx, courseID)
}

// AddVideo appends a video to a course the caller teaches. Managers may add to any course.
func (s *CatalogService) AddVideo(ctx context.Context, rc auth.RequestContext, courseID uint, input VideoInput, upload *Upload) (*model.Video, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	owns := rc.Can(auth.CapTeach) && course.TrainerID != nil && *course.TrainerID == rc.UserID
	if !owns && !rc.Can(auth.CapManageCatalog) {
		return nil, ErrForbidden
	}

	video := &model.Video{
		CourseID:        course.ID,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		Order:           input.Order,
	}

	if upload != nil {
		if s.blobs == nil {
			return nil, fmt.Errorf("video upload: %w", storage.ErrNotConfigured)
		}
		key := storage.VideoKey(course.ID, upload.Filename)
		if err := s.blobs.Upload(ctx, key, upload.Body, storage.ContentType(upload.Filename)); err != nil {
			return nil, err
		}
		video.StorageKey = key
	}

	if err := s.db.WithContext(ctx).Create(video).Error; err != nil {
		if video.StorageKey != "" {
			if delErr := s.blobs.Delete(ctx, video.StorageKey); delErr != nil {
				s.log.Warn("failed to remove orphaned upload", "key", video.StorageKey, "error", delErr)
			}
		}
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	s.log.Info("video added", "course_id", course.ID, "video_id", video.ID, "user_id", rc.UserID)
	return video, nil
}

func (s *CatalogService) checkReferences(ctx context.Context, categoryID, trainerID *uint) error {
	if categoryID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.CourseCategory{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check category: %w", err)
		}
		if count == 0 {
			return ErrCategoryNotFound
		}
	}
	if trainerID != nil {
		if _, err := s.loadTrainer(ctx, *trainerID); err != nil {
			return err
		}
	}
	return nil
}

// nullableID turns a nil id pointer into an untyped nil so GORM writes NULL
func nullableID(id *uint) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func (s *CatalogService) loadCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).Preload("Trainer").Preload("Category").First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	return &course, nil
}

func (s *CatalogService) loadTrainer(ctx context.Context, trainerID uint) (*model.User, error) {
	var trainer model.User
	err := s.db.WithContext(ctx).Where("id = ? AND role = ?", trainerID, model.RoleTrainer).First(&trainer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTrainerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trainer: %w", err)
	}
	return &trainer, nil
}
