package services

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/sahilchouksey/elearning-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		completed, total int64
		want             float64
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 4, 0},
		{1, 2, 50},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{3, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProgressPercentage(tt.completed, tt.total), "%d/%d", tt.completed, tt.total)
	}
}

func TestRecordWatchProgressRequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, model.RoleStudent)
	_, videos := f.course(t, "Intro to X", 0, nil, 1)

	_, err := f.progress.RecordWatchProgress(ctx, rcFor(student), videos[0].ID, true, 30)
	assert.ErrorIs(t, err, ErrNotEnrolled)
	assert.Zero(t, f.count(t, &model.VideoProgress{}, ""))

	_, err = f.progress.WatchVideo(ctx, rcFor(student), videos[0].ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)
	assert.Zero(t, f.count(t, &model.VideoProgress{}, ""))

	_, err = f.progress.RecordWatchProgress(ctx, rcFor(student), 9999, true, 0)
	assert.ErrorIs(t, err, ErrVideoNotFound)

	trainer := f.user(t, model.RoleTrainer)
	_, err = f.progress.RecordWatchProgress(ctx, rcFor(trainer), videos[0].ID, true, 0)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRecordWatchProgressIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, model.RoleStudent)
	course, videos := f.course(t, "Intro to X", 0, nil, 1, 2)
	f.enroll(t, student, course)
	video := videos[0].ID

	update, err := f.progress.RecordWatchProgress(ctx, rcFor(student), video, false, 120)
	require.NoError(t, err)
	assert.False(t, update.Progress.Completed)
	assert.Equal(t, 120, update.Progress.WatchedSeconds)

	update, err = f.progress.RecordWatchProgress(ctx, rcFor(student), video, true, 60)
	require.NoError(t, err)
	assert.True(t, update.Progress.Completed)
	assert.Equal(t, 120, update.Progress.WatchedSeconds, "watched seconds never decrease")

	update, err = f.progress.RecordWatchProgress(ctx, rcFor(student), video, false, 300)
	require.NoError(t, err)
	assert.True(t, update.Progress.Completed, "completion is never revoked")
	assert.Equal(t, 300, update.Progress.WatchedSeconds)

	assert.Equal(t, int64(1), f.count(t, &model.VideoProgress{}, "student_id = ? AND video_id = ?", student.ID, video))
}

func TestWatchVideoRepeatedlyKeepsOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, model.RoleStudent)
	course, videos := f.course(t, "Intro to X", 0, nil, 1, 2)
	f.enroll(t, student, course)

	for i := 0; i < 3; i++ {
		view, err := f.progress.WatchVideo(ctx, rcFor(student), videos[1].ID)
		require.NoError(t, err)
		assert.False(t, view.Progress.Completed)
	}
	assert.Equal(t, int64(1), f.count(t, &model.VideoProgress{}, ""))
}

func TestConcurrentProgressKeepsOneRow(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	course, videos := f.course(t, "Intro to X", 0, nil, 1)
	f.enroll(t, student, course)
	video := videos[0].ID

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(2)
		go func(seconds int) {
			defer wg.Done()
			_, err := f.progress.RecordWatchProgress(context.Background(), rcFor(student), video, seconds == 4, seconds*10)
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			_, err := f.progress.WatchVideo(context.Background(), rcFor(student), video)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var rows []model.VideoProgress
	require.NoError(t, f.db.Where("student_id = ? AND video_id = ?", student.ID, video).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Completed)
	assert.Equal(t, 80, rows[0].WatchedSeconds)
	assert.Equal(t, int64(1), f.count(t, &model.Enrollment{}, "student_id = ? AND completed = ?", student.ID, true))
}

func TestComputeNextVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course, videos := f.course(t, "Ordering", 0, nil, 3, 1, 2, 2)

	next, err := f.progress.ComputeNextVideo(ctx, course.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, videos[2].ID, next.ID, "equal orders resolve to the lowest id")

	next, err = f.progress.ComputeNextVideo(ctx, course.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, videos[0].ID, next.ID)

	next, err = f.progress.ComputeNextVideo(ctx, course.ID, 3)
	require.NoError(t, err)
	assert.Nil(t, next)

	empty, _ := f.course(t, "Empty", 0, nil)
	next, err = f.progress.ComputeNextVideo(ctx, empty.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCourseProgressWithoutVideos(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	course, _ := f.course(t, "Empty", 0, nil)

	cp, err := f.progress.CourseProgress(context.Background(), student.ID, course.ID)
	require.NoError(t, err)
	assert.Zero(t, cp.Total)
	assert.Zero(t, cp.Percentage)
}

func TestIntroToXScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, model.RoleStudent)
	course, videos := f.course(t, "Intro to X", 0, nil, 1, 2)

	result, err := f.enrollments.InitiateEnrollment(ctx, rcFor(student), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnrolled, result.Outcome)

	update, err := f.progress.RecordWatchProgress(ctx, rcFor(student), videos[0].ID, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 50.0, update.CourseProgress.Percentage)
	require.NotNil(t, update.NextVideo)
	assert.Equal(t, videos[1].ID, update.NextVideo.ID)
	assert.Equal(t, 2, update.NextVideo.Order)

	var enrollment model.Enrollment
	require.NoError(t, f.db.Where("student_id = ? AND course_id = ?", student.ID, course.ID).First(&enrollment).Error)
	assert.False(t, enrollment.Completed)

	update, err = f.progress.RecordWatchProgress(ctx, rcFor(student), videos[1].ID, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, update.CourseProgress.Percentage)
	assert.Nil(t, update.NextVideo)

	require.NoError(t, f.db.Where("student_id = ? AND course_id = ?", student.ID, course.ID).First(&enrollment).Error)
	assert.True(t, enrollment.Completed)
}

func TestWatchVideoView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trainer := f.user(t, model.RoleTrainer)
	student := f.user(t, model.RoleStudent)
	other := f.user(t, model.RoleStudent)
	course, videos := f.course(t, "Intro to X", 0, trainer, 1, 2)
	f.enroll(t, student, course)
	f.enroll(t, other, course)

	key := "videos/1/lesson.mp4"
	require.NoError(t, f.blobs.Upload(ctx, key, bytes.NewReader([]byte("frames")), "video/mp4"))
	require.NoError(t, f.db.Model(&videos[0]).Update("storage_key", key).Error)

	_, err := f.progress.RecordWatchProgress(ctx, rcFor(student), videos[0].ID, true, 0)
	require.NoError(t, err)
	_, err = f.ratings.RateVideo(ctx, rcFor(student), videos[0].ID, 4, "clear")
	require.NoError(t, err)
	_, err = f.ratings.RateVideo(ctx, rcFor(other), videos[0].ID, 5, "")
	require.NoError(t, err)

	view, err := f.progress.WatchVideo(ctx, rcFor(student), videos[0].ID)
	require.NoError(t, err)

	assert.Equal(t, videos[0].ID, view.Video.ID)
	require.NotNil(t, view.Course.Trainer)
	assert.Equal(t, trainer.ID, view.Course.Trainer.ID)
	assert.True(t, view.Progress.Completed, "opening a video keeps it completed")
	assert.Equal(t, 50.0, view.CourseProgress.Percentage)
	require.NotNil(t, view.NextVideo)
	assert.Equal(t, videos[1].ID, view.NextVideo.ID)

	require.Len(t, view.Playlist, 2)
	assert.True(t, view.Playlist[0].Completed)
	assert.False(t, view.Playlist[1].Completed)

	assert.Len(t, view.Ratings, 2)
	assert.Equal(t, 4.5, view.AverageRating)
	require.NotNil(t, view.MyRating)
	assert.Equal(t, 4, view.MyRating.Rating)

	assert.True(t, strings.HasPrefix(view.StreamURL, "memory://"+key))
	assert.NotNil(t, view.StreamExpires)
}

func TestWatchVideoWithoutStoredFile(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	course, videos := f.course(t, "Intro to X", 0, nil, 1)
	f.enroll(t, student, course)
	require.NoError(t, f.db.Model(&videos[0]).Update("storage_key", "videos/missing.mp4").Error)

	view, err := f.progress.WatchVideo(context.Background(), rcFor(student), videos[0].ID)
	require.NoError(t, err)
	assert.Empty(t, view.StreamURL)
	assert.Nil(t, view.StreamExpires)
}
