package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/cache"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	managerOverviewKey = "reports:manager_overview"
	managerOverviewTTL = 30 * time.Second
	recentItems        = 5
)

// EnrolledCourse is one row of the student dashboard
type EnrolledCourse struct {
	Course     model.Course   `json:"course"`
	EnrolledAt time.Time      `json:"enrolled_at"`
	Completed  bool           `json:"completed"`
	Progress   CourseProgress `json:"progress"`
}

// StudentDashboard lists the caller's courses with progress
type StudentDashboard struct {
	Courses          []EnrolledCourse `json:"courses"`
	TotalEnrolled    int              `json:"total_enrolled"`
	CompletedCourses int              `json:"completed_courses"`
}

// TrainerCourse is one owned course on the trainer dashboard
type TrainerCourse struct {
	Course       model.Course `json:"course"`
	StudentCount int64        `json:"student_count"`
	VideoCount   int64        `json:"video_count"`
}

// TrainerDashboard summarizes the courses a trainer teaches
type TrainerDashboard struct {
	Courses       []TrainerCourse `json:"courses"`
	TotalCourses  int             `json:"total_courses"`
	TotalStudents int64           `json:"total_students"`
}

// StudentProgress is one enrolled student's progress in a course
type StudentProgress struct {
	Student         *model.User `json:"student"`
	EnrolledAt      time.Time   `json:"enrolled_at"`
	Completed       bool        `json:"completed"`
	CompletedVideos int64       `json:"completed_videos"`
	TotalVideos     int64       `json:"total_videos"`
	Percentage      float64     `json:"percentage"`
	LastActivity    *time.Time  `json:"last_activity,omitempty"`
}

// ProgressBuckets counts students by progress band
type ProgressBuckets struct {
	NotStarted int `json:"not_started"`
	UpToHalf   int `json:"up_to_half"`
	OverHalf   int `json:"over_half"`
	Finished   int `json:"finished"`
}

// Add places a percentage in its band: 0, (0,50], (50,100), 100
func (b *ProgressBuckets) Add(percentage float64) {
	switch {
	case percentage <= 0:
		b.NotStarted++
	case percentage >= 100:
		b.Finished++
	case percentage <= 50:
		b.UpToHalf++
	default:
		b.OverHalf++
	}
}

// CourseStudentsReport is the trainer's view of a course's students
type CourseStudentsReport struct {
	Course          model.Course      `json:"course"`
	Students        []StudentProgress `json:"students"`
	TotalStudents   int               `json:"total_students"`
	AverageProgress float64           `json:"average_progress"`
	CompletedCount  int               `json:"completed_count"`
	Buckets         ProgressBuckets   `json:"buckets"`
}

// ManagerOverview is the manager dashboard
type ManagerOverview struct {
	TotalCourses           int64           `json:"total_courses"`
	TotalStudents          int64           `json:"total_students"`
	TotalTrainers          int64           `json:"total_trainers"`
	TotalRevenue           float64         `json:"total_revenue"`
	RecentPayments         []model.Payment `json:"recent_payments"`
	RecentFeedbacks        []model.Rating  `json:"recent_feedbacks"`
	CoursesWithoutTrainers []model.Course  `json:"courses_without_trainers"`
}

// PaymentsReport lists payments newest first and grouped by status
type PaymentsReport struct {
	Payments []model.Payment                         `json:"payments"`
	ByStatus map[model.PaymentStatus][]model.Payment `json:"by_status"`
}

// TrainerSummary is a trainer row on the manager trainers page
type TrainerSummary struct {
	Trainer       model.User `json:"trainer"`
	CourseCount   int64      `json:"course_count"`
	AverageRating float64    `json:"average_rating"`
}

// StarCount is the number of video and trainer ratings with a given star value
type StarCount struct {
	Stars        int   `json:"stars"`
	VideoCount   int64 `json:"video_count"`
	TrainerCount int64 `json:"trainer_count"`
}

// FeedbackReport aggregates every rating
type FeedbackReport struct {
	VideoRatings       []model.Rating `json:"video_ratings"`
	TrainerRatings     []model.Rating `json:"trainer_ratings"`
	VideoAverage       float64        `json:"video_avg_rating"`
	TrainerAverage     float64        `json:"trainer_avg_rating"`
	RatingDistribution []StarCount    `json:"rating_distribution"`
	TotalFeedbacks     int            `json:"total_feedbacks"`
}

// StudentAnalytics is one student's progress across every enrollment
type StudentAnalytics struct {
	Student          model.User `json:"student"`
	TotalEnrollments int64      `json:"total_enrollments"`
	CompletedCourses int64      `json:"completed_courses"`
	OverallProgress  float64    `json:"overall_progress"`
	VideosWatched    int64      `json:"videos_watched"`
	LastActivity     *time.Time `json:"last_activity,omitempty"`
}

// CourseAnalytics is one course's progress across its students
type CourseAnalytics struct {
	Course            model.Course `json:"course"`
	TotalStudents     int64        `json:"total_students"`
	CompletedStudents int64        `json:"completed_students"`
	AverageProgress   float64      `json:"average_progress"`
}

// ProgressAnalytics is the manager's progress analysis page
type ProgressAnalytics struct {
	Students         []StudentAnalytics `json:"students"`
	Courses          []CourseAnalytics  `json:"courses"`
	TotalStudents    int                `json:"total_students"`
	ActiveStudents   int                `json:"active_students"`
	TotalCourses     int                `json:"total_courses"`
	TotalCompletions int64              `json:"total_completions"`
}

// Dashboard is the role-specific landing payload
type Dashboard struct {
	Role model.Role  `json:"role"`
	Data interface{} `json:"data"`
}

// ReportService builds read-only aggregates. Nothing it computes is stored.
type ReportService struct {
	db         *gorm.DB
	cache      *cache.Store
	log        *logger.Logger
	dashboards map[model.Role]func(context.Context, auth.RequestContext) (interface{}, error)
}

// NewReportService creates a new report service. store may be nil.
func NewReportService(db *gorm.DB, store *cache.Store, log *logger.Logger) *ReportService {
	s := &ReportService{
		db:    db,
		cache: store,
		log:   log.With("component", "reports"),
	}
	s.dashboards = map[model.Role]func(context.Context, auth.RequestContext) (interface{}, error){
		model.RoleStudent: func(ctx context.Context, rc auth.RequestContext) (interface{}, error) {
			return s.StudentDashboard(ctx, rc)
		},
		model.RoleTrainer: func(ctx context.Context, rc auth.RequestContext) (interface{}, error) {
			return s.TrainerDashboard(ctx, rc)
		},
		model.RoleManager: func(ctx context.Context, rc auth.RequestContext) (interface{}, error) {
			return s.ManagerOverview(ctx, rc)
		},
	}
	return s
}

// Dashboard returns the landing payload for the caller's role
func (s *ReportService) Dashboard(ctx context.Context, rc auth.RequestContext) (*Dashboard, error) {
	build, ok := s.dashboards[rc.Role]
	if !ok {
		return nil, ErrForbidden
	}
	data, err := build(ctx, rc)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Role: rc.Role, Data: data}, nil
}

// StudentDashboard returns the caller's enrollments with progress
func (s *ReportService) StudentDashboard(ctx context.Context, rc auth.RequestContext) (*StudentDashboard, error) {
	if !rc.Can(auth.CapWatchVideo) {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var enrollments []model.Enrollment
	if err := db.Preload("Course").Preload("Course.Trainer").
		Where("student_id = ?", rc.UserID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}

	courseIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	totals, err := videoCounts(db, courseIDs)
	if err != nil {
		return nil, err
	}
	completed, err := completedCounts(db, courseIDs, []uint{rc.UserID})
	if err != nil {
		return nil, err
	}

	dash := &StudentDashboard{Courses: make([]EnrolledCourse, 0, len(enrollments))}
	for _, e := range enrollments {
		if e.Course == nil {
			continue
		}
		done := completed[studentCourse{rc.UserID, e.CourseID}]
		dash.Courses = append(dash.Courses, EnrolledCourse{
			Course:     *e.Course,
			EnrolledAt: e.EnrolledAt,
			Completed:  e.Completed,
			Progress: CourseProgress{
				CourseID:   e.CourseID,
				Completed:  done,
				Total:      totals[e.CourseID],
				Percentage: ProgressPercentage(done, totals[e.CourseID]),
			},
		})
		if e.Completed {
			dash.CompletedCourses++
		}
	}
	dash.TotalEnrolled = len(dash.Courses)
	return dash, nil
}

// TrainerDashboard lists the caller's courses with student and video counts
func (s *ReportService) TrainerDashboard(ctx context.Context, rc auth.RequestContext) (*TrainerDashboard, error) {
	if !rc.Can(auth.CapTeach) {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var courses []model.Course
	if err := db.Preload("Category").
		Where("trainer_id = ?", rc.UserID).
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}

	summaries, err := summarizeCourses(db, courses)
	if err != nil {
		return nil, err
	}

	dash := &TrainerDashboard{Courses: make([]TrainerCourse, 0, len(summaries))}
	for _, c := range summaries {
		dash.Courses = append(dash.Courses, TrainerCourse{
			Course:       c.Course,
			StudentCount: c.StudentCount,
			VideoCount:   c.VideoCount,
		})
		dash.TotalStudents += c.StudentCount
	}
	dash.TotalCourses = len(dash.Courses)
	return dash, nil
}

// CourseStudents reports per-student progress in a course. Trainers only see courses they teach.
func (s *ReportService) CourseStudents(ctx context.Context, rc auth.RequestContext, courseID uint) (*CourseStudentsReport, error) {
	if !rc.Can(auth.CapTeach) && !rc.Can(auth.CapViewAnalytics) {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var course model.Course
	query := db.Where("id = ?", courseID)
	if !rc.Can(auth.CapViewAnalytics) {
		query = query.Where("trainer_id = ?", rc.UserID)
	}
	if err := query.First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	var enrollments []model.Enrollment
	if err := db.Preload("Student").
		Where("course_id = ?", course.ID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}

	totals, err := videoCounts(db, []uint{course.ID})
	if err != nil {
		return nil, err
	}
	completed, err := completedCounts(db, []uint{course.ID}, nil)
	if err != nil {
		return nil, err
	}
	activity, err := lastActivity(db, &course.ID)
	if err != nil {
		return nil, err
	}

	report := &CourseStudentsReport{Course: course, Students: make([]StudentProgress, 0, len(enrollments))}
	var sum float64
	for _, e := range enrollments {
		done := completed[studentCourse{e.StudentID, course.ID}]
		row := StudentProgress{
			Student:         e.Student,
			EnrolledAt:      e.EnrolledAt,
			Completed:       e.Completed,
			CompletedVideos: done,
			TotalVideos:     totals[course.ID],
			Percentage:      ProgressPercentage(done, totals[course.ID]),
		}
		if at, ok := activity[e.StudentID]; ok {
			row.LastActivity = &at
		}

		report.Students = append(report.Students, row)
		report.Buckets.Add(row.Percentage)
		sum += row.Percentage
		if e.Completed {
			report.CompletedCount++
		}
	}

	report.TotalStudents = len(report.Students)
	if report.TotalStudents > 0 {
		report.AverageProgress = roundTo2(sum / float64(report.TotalStudents))
	}
	return report, nil
}

// ManagerOverview returns platform totals and recent activity, cached briefly when Redis is available
func (s *ReportService) ManagerOverview(ctx context.Context, rc auth.RequestContext) (*ManagerOverview, error) {
	if !rc.Can(auth.CapViewAnalytics) {
		return nil, ErrForbidden
	}

	return cache.Remember(ctx, s.cache, managerOverviewKey, managerOverviewTTL, s.buildOverview, func(err error) {
		s.log.Warn("manager overview cache unavailable", "error", err)
	})
}

func (s *ReportService) buildOverview(ctx context.Context) (*ManagerOverview, error) {
	overview := &ManagerOverview{}
	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)

	g.Go(func() error {
		return db.Model(&model.Course{}).Count(&overview.TotalCourses).Error
	})
	g.Go(func() error {
		return db.Model(&model.User{}).Where("role = ?", model.RoleStudent).Count(&overview.TotalStudents).Error
	})
	g.Go(func() error {
		return db.Model(&model.User{}).Where("role = ?", model.RoleTrainer).Count(&overview.TotalTrainers).Error
	})
	g.Go(func() error {
		return db.Model(&model.Payment{}).
			Where("status = ?", model.PaymentCompleted).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&overview.TotalRevenue).Error
	})
	g.Go(func() error {
		return db.Preload("Student").Preload("Course").
			Order("created_at DESC").Order("id DESC").
			Limit(recentItems).
			Find(&overview.RecentPayments).Error
	})
	g.Go(func() error {
		return db.Preload("Student").Preload("Video").Preload("Trainer").
			Order("created_at DESC").Order("id DESC").
			Limit(recentItems).
			Find(&overview.RecentFeedbacks).Error
	})
	g.Go(func() error {
		return db.Where("trainer_id IS NULL").Order("title ASC").Find(&overview.CoursesWithoutTrainers).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build manager overview: %w", err)
	}
	overview.TotalRevenue = roundTo2(overview.TotalRevenue)
	return overview, nil
}

// InvalidateOverview drops the cached manager overview
func (s *ReportService) InvalidateOverview(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, managerOverviewKey); err != nil {
		s.log.Warn("failed to invalidate manager overview", "error", err)
	}
}

// Payments lists every payment newest first, grouped by status
func (s *ReportService) Payments(ctx context.Context, rc auth.RequestContext) (*PaymentsReport, error) {
	if !rc.Can(auth.CapManagePayments) {
		return nil, ErrForbidden
	}

	var payments []model.Payment
	if err := s.db.WithContext(ctx).
		Preload("Student").Preload("Course").
		Order("created_at DESC").Order("id DESC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	report := &PaymentsReport{
		Payments: payments,
		ByStatus: make(map[model.PaymentStatus][]model.Payment, len(model.PaymentStatuses)),
	}
	for _, status := range model.PaymentStatuses {
		report.ByStatus[status] = []model.Payment{}
	}
	for _, p := range payments {
		report.ByStatus[p.Status] = append(report.ByStatus[p.Status], p)
	}
	return report, nil
}

// Trainers lists trainer accounts with course counts and average rating
func (s *ReportService) Trainers(ctx context.Context, rc auth.RequestContext) ([]TrainerSummary, error) {
	if !rc.Can(auth.CapManageTrainers) {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var trainers []model.User
	if err := db.Where("role = ?", model.RoleTrainer).Order("username ASC").Find(&trainers).Error; err != nil {
		return nil, fmt.Errorf("failed to load trainers: %w", err)
	}

	type trainerAgg struct {
		TrainerID uint
		Count     int64
		Average   float64
	}

	var courseRows []trainerAgg
	if err := db.Model(&model.Course{}).
		Select("trainer_id, COUNT(*) AS count").
		Where("trainer_id IS NOT NULL").
		Group("trainer_id").
		Scan(&courseRows).Error; err != nil {
		return nil, fmt.Errorf("failed to count trainer courses: %w", err)
	}
	var ratingRows []trainerAgg
	if err := db.Model(&model.Rating{}).
		Select("trainer_id, AVG(rating) AS average").
		Where("trainer_id IS NOT NULL").
		Group("trainer_id").
		Scan(&ratingRows).Error; err != nil {
		return nil, fmt.Errorf("failed to average trainer ratings: %w", err)
	}

	courseCounts := make(map[uint]int64, len(courseRows))
	for _, r := range courseRows {
		courseCounts[r.TrainerID] = r.Count
	}
	averages := make(map[uint]float64, len(ratingRows))
	for _, r := range ratingRows {
		averages[r.TrainerID] = roundTo2(r.Average)
	}

	out := make([]TrainerSummary, 0, len(trainers))
	for _, t := range trainers {
		out = append(out, TrainerSummary{Trainer: t, CourseCount: courseCounts[t.ID], AverageRating: averages[t.ID]})
	}
	return out, nil
}

// Feedback aggregates video and trainer ratings
func (s *ReportService) Feedback(ctx context.Context, rc auth.RequestContext) (*FeedbackReport, error) {
	if !rc.Can(auth.CapViewAnalytics) {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	report := &FeedbackReport{}
	if err := db.Preload("Student").Preload("Video").Preload("Video.Course").
		Where("video_id IS NOT NULL").
		Order("updated_at DESC").
		Find(&report.VideoRatings).Error; err != nil {
		return nil, fmt.Errorf("failed to load video ratings: %w", err)
	}
	if err := db.Preload("Student").Preload("Trainer").
		Where("trainer_id IS NOT NULL").
		Order("updated_at DESC").
		Find(&report.TrainerRatings).Error; err != nil {
		return nil, fmt.Errorf("failed to load trainer ratings: %w", err)
	}

	report.VideoAverage = averageRating(report.VideoRatings)
	report.TrainerAverage = averageRating(report.TrainerRatings)
	report.TotalFeedbacks = len(report.VideoRatings) + len(report.TrainerRatings)

	report.RatingDistribution = make([]StarCount, 0, model.MaxRating)
	for stars := model.MinRating; stars <= model.MaxRating; stars++ {
		report.RatingDistribution = append(report.RatingDistribution, StarCount{Stars: stars})
	}
	for _, r := range report.VideoRatings {
		if validRating(r.Rating) {
			report.RatingDistribution[r.Rating-model.MinRating].VideoCount++
		}
	}
	for _, r := range report.TrainerRatings {
		if validRating(r.Rating) {
			report.RatingDistribution[r.Rating-model.MinRating].TrainerCount++
		}
	}
	return report, nil
}

// ProgressAnalytics reports progress per student and per course
func (s *ReportService) ProgressAnalytics(ctx context.Context, rc auth.RequestContext) (*ProgressAnalytics, error) {
	if !rc.Can(auth.CapViewAnalytics) {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var students []model.User
	if err := db.Where("role = ?", model.RoleStudent).Order("username ASC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	var courses []model.Course
	if err := db.Order("title ASC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}
	var enrollments []model.Enrollment
	if err := db.Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}

	totals, err := videoCounts(db, nil)
	if err != nil {
		return nil, err
	}
	completed, err := completedCounts(db, nil, nil)
	if err != nil {
		return nil, err
	}

	activity, err := lastActivity(db, nil)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[uint]*StudentAnalytics, len(students))
	analytics := &ProgressAnalytics{Students: make([]StudentAnalytics, len(students))}
	assigned := make(map[uint]int64, len(students))
	for i, st := range students {
		analytics.Students[i] = StudentAnalytics{Student: st}
		byStudent[st.ID] = &analytics.Students[i]
		if at, ok := activity[st.ID]; ok {
			analytics.Students[i].LastActivity = &at
			analytics.ActiveStudents++
		}
	}

	type courseAgg struct {
		students  int64
		completed int64
		sum       float64
	}
	byCourse := make(map[uint]*courseAgg, len(courses))
	for _, c := range courses {
		byCourse[c.ID] = &courseAgg{}
	}

	for _, e := range enrollments {
		done := completed[studentCourse{e.StudentID, e.CourseID}]
		total := totals[e.CourseID]

		if sa, ok := byStudent[e.StudentID]; ok {
			sa.TotalEnrollments++
			sa.VideosWatched += done
			assigned[e.StudentID] += total
			if e.Completed {
				sa.CompletedCourses++
			}
		}
		if agg, ok := byCourse[e.CourseID]; ok {
			agg.students++
			agg.sum += ProgressPercentage(done, total)
			if e.Completed {
				agg.completed++
			}
		}
		if e.Completed {
			analytics.TotalCompletions++
		}
	}

	for i := range analytics.Students {
		sa := &analytics.Students[i]
		sa.OverallProgress = ProgressPercentage(sa.VideosWatched, assigned[sa.Student.ID])
	}

	analytics.Courses = make([]CourseAnalytics, 0, len(courses))
	for _, c := range courses {
		agg := byCourse[c.ID]
		row := CourseAnalytics{Course: c, TotalStudents: agg.students, CompletedStudents: agg.completed}
		if agg.students > 0 {
			row.AverageProgress = roundTo2(agg.sum / float64(agg.students))
		}
		analytics.Courses = append(analytics.Courses, row)
	}

	analytics.TotalStudents = len(students)
	analytics.TotalCourses = len(courses)
	return analytics, nil
}

type studentCourse struct {
	StudentID uint
	CourseID  uint
}

// videoCounts returns the number of videos per course, for every course when courseIDs is nil
func videoCounts(db *gorm.DB, courseIDs []uint) (map[uint]int64, error) {
	var rows []courseCount
	query := db.Model(&model.Video{}).Select("course_id, COUNT(*) AS count").Group("course_id")
	if courseIDs != nil {
		if len(courseIDs) == 0 {
			return map[uint]int64{}, nil
		}
		query = query.Where("course_id IN ?", courseIDs)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count videos: %w", err)
	}

	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.CourseID] = r.Count
	}
	return out, nil
}

// completedCounts returns completed videos per (student, course); nil filters mean no restriction
func completedCounts(db *gorm.DB, courseIDs, studentIDs []uint) (map[studentCourse]int64, error) {
	if (courseIDs != nil && len(courseIDs) == 0) || (studentIDs != nil && len(studentIDs) == 0) {
		return map[studentCourse]int64{}, nil
	}

	query := db.Model(&model.VideoProgress{}).
		Select("video_progress.student_id AS student_id, videos.course_id AS course_id, COUNT(*) AS count").
		Joins("JOIN videos ON videos.id = video_progress.video_id").
		Where("video_progress.completed = ?", true).
		Group("video_progress.student_id, videos.course_id")
	if courseIDs != nil {
		query = query.Where("videos.course_id IN ?", courseIDs)
	}
	if studentIDs != nil {
		query = query.Where("video_progress.student_id IN ?", studentIDs)
	}

	var rows []struct {
		StudentID uint
		CourseID  uint
		Count     int64
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed videos: %w", err)
	}

	out := make(map[studentCourse]int64, len(rows))
	for _, r := range rows {
		out[studentCourse{r.StudentID, r.CourseID}] = r.Count
	}
	return out, nil
}

// lastActivity returns each student's latest watch time, within one course when courseID is set
func lastActivity(db *gorm.DB, courseID *uint) (map[uint]time.Time, error) {
	query := db.Model(&model.VideoProgress{}).Select("video_progress.student_id, video_progress.last_watched_at")
	if courseID != nil {
		query = query.Joins("JOIN videos ON videos.id = video_progress.video_id").
			Where("videos.course_id = ?", *courseID)
	}

	var progress []model.VideoProgress
	if err := query.Find(&progress).Error; err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	out := make(map[uint]time.Time)
	for _, p := range progress {
		if p.LastWatchedAt.After(out[p.StudentID]) {
			out[p.StudentID] = p.LastWatchedAt
		}
	}
	return out, nil
}
