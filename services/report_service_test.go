package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/elearning-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressBuckets(t *testing.T) {
	var b ProgressBuckets
	for _, pct := range []float64{0, 10, 50, 50.01, 99.99, 100} {
		b.Add(pct)
	}
	assert.Equal(t, ProgressBuckets{NotStarted: 1, UpToHalf: 2, OverHalf: 2, Finished: 1}, b)
}

func TestStudentDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, model.RoleStudent)
	first, videos := f.course(t, "Intro to X", 0, nil, 1, 2)
	second, _ := f.course(t, "Advanced Y", 0, nil, 1)
	f.enroll(t, student, first)
	f.enroll(t, student, second)

	_, err := f.progress.RecordWatchProgress(ctx, rcFor(student), videos[0].ID, true, 0)
	require.NoError(t, err)

	dash, err := f.reports.Dashboard(ctx, rcFor(student))
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, dash.Role)

	data, ok := dash.Data.(*StudentDashboard)
	require.True(t, ok)
	assert.Equal(t, 2, data.TotalEnrolled)
	assert.Zero(t, data.CompletedCourses)
	for _, c := range data.Courses {
		if c.Course.ID == first.ID {
			assert.Equal(t, 50.0, c.Progress.Percentage)
		} else {
			assert.Zero(t, c.Progress.Percentage)
		}
	}
}

func TestTrainerDashboardAndCourseStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trainer := f.user(t, model.RoleTrainer)
	other := f.user(t, model.RoleTrainer)
	manager := f.user(t, model.RoleManager)
	alice := f.user(t, model.RoleStudent)
	bob := f.user(t, model.RoleStudent)

	course, videos := f.course(t, "Intro to X", 0, trainer, 1, 2)
	f.course(t, "Unassigned", 0, nil, 1)
	f.enroll(t, alice, course)
	f.enroll(t, bob, course)

	_, err := f.progress.RecordWatchProgress(ctx, rcFor(alice), videos[0].ID, true, 0)
	require.NoError(t, err)
	_, err = f.progress.RecordWatchProgress(ctx, rcFor(alice), videos[1].ID, true, 0)
	require.NoError(t, err)

	dash, err := f.reports.TrainerDashboard(ctx, rcFor(trainer))
	require.NoError(t, err)
	assert.Equal(t, 1, dash.TotalCourses)
	assert.Equal(t, int64(2), dash.TotalStudents)
	require.Len(t, dash.Courses, 1)
	assert.Equal(t, int64(2), dash.Courses[0].VideoCount)

	report, err := f.reports.CourseStudents(ctx, rcFor(trainer), course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalStudents)
	assert.Equal(t, 1, report.CompletedCount)
	assert.Equal(t, 50.0, report.AverageProgress)
	assert.Equal(t, ProgressBuckets{NotStarted: 1, Finished: 1}, report.Buckets)
	for _, row := range report.Students {
		if row.Student.ID == alice.ID {
			assert.NotNil(t, row.LastActivity)
			assert.Equal(t, 100.0, row.Percentage)
		} else {
			assert.Nil(t, row.LastActivity)
		}
	}

	_, err = f.reports.CourseStudents(ctx, rcFor(other), course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = f.reports.CourseStudents(ctx, rcFor(manager), course.ID)
	assert.NoError(t, err)

	_, err = f.reports.CourseStudents(ctx, rcFor(alice), course.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestManagerOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manager := f.user(t, model.RoleManager)
	student := f.user(t, model.RoleStudent)
	f.user(t, model.RoleTrainer)
	paid, _ := f.course(t, "Advanced Y", 49.99, nil, 1)
	free, _ := f.course(t, "Intro to X", 0, nil, 1)

	started, err := f.enrollments.InitiateEnrollment(ctx, rcFor(student), paid.ID)
	require.NoError(t, err)
	f.gateway.MarkPaid(*started.Payment.GatewaySessionID)
	_, err = f.enrollments.ConfirmPayment(ctx, rcFor(student), paid.ID, *started.Payment.GatewaySessionID)
	require.NoError(t, err)
	_, err = f.enrollments.InitiateEnrollment(ctx, rcFor(student), free.ID)
	require.NoError(t, err)

	overview, err := f.reports.ManagerOverview(ctx, rcFor(manager))
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.TotalCourses)
	assert.Equal(t, int64(1), overview.TotalStudents)
	assert.Equal(t, int64(1), overview.TotalTrainers)
	assert.InDelta(t, 49.99, overview.TotalRevenue, 0.001)
	assert.Len(t, overview.RecentPayments, 2)
	assert.Len(t, overview.CoursesWithoutTrainers, 2)

	_, err = f.reports.ManagerOverview(ctx, rcFor(student))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPaymentsReportGroupsByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manager := f.user(t, model.RoleManager)
	student := f.user(t, model.RoleStudent)
	course, _ := f.course(t, "Advanced Y", 49.99, nil, 1)

	for i := 0; i < 2; i++ {
		_, err := f.enrollments.InitiateEnrollment(ctx, rcFor(student), course.ID)
		require.NoError(t, err)
	}

	report, err := f.reports.Payments(ctx, rcFor(manager))
	require.NoError(t, err)
	assert.Len(t, report.Payments, 2)
	assert.Len(t, report.ByStatus[model.PaymentPending], 2)
	for _, status := range model.PaymentStatuses {
		assert.Contains(t, report.ByStatus, status)
	}
}

func TestFeedbackAndTrainers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manager := f.user(t, model.RoleManager)
	trainer := f.user(t, model.RoleTrainer)
	alice := f.user(t, model.RoleStudent)
	bob := f.user(t, model.RoleStudent)
	_, videos := f.course(t, "Intro to X", 0, trainer, 1)

	_, err := f.ratings.RateVideo(ctx, rcFor(alice), videos[0].ID, 5, "")
	require.NoError(t, err)
	_, err = f.ratings.RateVideo(ctx, rcFor(bob), videos[0].ID, 3, "")
	require.NoError(t, err)
	_, err = f.ratings.RateTrainer(ctx, rcFor(alice), trainer.ID, 4, "")
	require.NoError(t, err)

	report, err := f.reports.Feedback(ctx, rcFor(manager))
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalFeedbacks)
	assert.Equal(t, 4.0, report.VideoAverage)
	assert.Equal(t, 4.0, report.TrainerAverage)
	require.Len(t, report.RatingDistribution, 5)
	assert.Equal(t, StarCount{Stars: 5, VideoCount: 1}, report.RatingDistribution[4])
	assert.Equal(t, StarCount{Stars: 4, TrainerCount: 1}, report.RatingDistribution[3])

	trainers, err := f.reports.Trainers(ctx, rcFor(manager))
	require.NoError(t, err)
	require.Len(t, trainers, 1)
	assert.Equal(t, int64(1), trainers[0].CourseCount)
	assert.Equal(t, 4.0, trainers[0].AverageRating)
}

func TestProgressAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manager := f.user(t, model.RoleManager)
	alice := f.user(t, model.RoleStudent)
	f.user(t, model.RoleStudent)
	course, videos := f.course(t, "Intro to X", 0, nil, 1, 2)
	f.enroll(t, alice, course)

	_, err := f.progress.RecordWatchProgress(ctx, rcFor(alice), videos[0].ID, true, 0)
	require.NoError(t, err)

	analytics, err := f.reports.ProgressAnalytics(ctx, rcFor(manager))
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.TotalStudents)
	assert.Equal(t, 1, analytics.ActiveStudents)
	assert.Equal(t, 1, analytics.TotalCourses)
	assert.Zero(t, analytics.TotalCompletions)

	for _, s := range analytics.Students {
		if s.Student.ID == alice.ID {
			assert.Equal(t, int64(1), s.TotalEnrollments)
			assert.Equal(t, int64(1), s.VideosWatched)
			assert.Equal(t, 50.0, s.OverallProgress)
		}
	}
	require.Len(t, analytics.Courses, 1)
	assert.Equal(t, int64(1), analytics.Courses[0].TotalStudents)
	assert.Equal(t, 50.0, analytics.Courses[0].AverageProgress)
}
