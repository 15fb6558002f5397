package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/elearning-api/database/dbtest"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubReconciler struct {
	summary *services.ReconcileSummary
	err     error
	minAge  time.Duration
}

func (s *stubReconciler) ReconcilePending(ctx context.Context, minAge time.Duration, limit int) (*services.ReconcileSummary, error) {
	s.minAge = minAge
	return s.summary, s.err
}

type stubCleaner struct {
	deleted int64
	err     error
}

func (s *stubCleaner) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.deleted, s.err
}

func lastLog(t *testing.T, db *gorm.DB, job string) model.CronJobLog {
	t.Helper()
	var entry model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", job).Order("id DESC").First(&entry).Error)
	return entry
}

func TestReconcilePendingPaymentsLogsSummary(t *testing.T) {
	db := dbtest.Open(t)
	reconciler := &stubReconciler{summary: &services.ReconcileSummary{Checked: 3, Confirmed: 2, Failed: 1}}
	m := NewCronManager(db, reconciler, &stubCleaner{}, logger.NewNop())

	m.ReconcilePendingPayments()

	entry := lastLog(t, db, "reconcile_pending_payments")
	assert.Equal(t, model.CronJobCompleted, entry.Status)
	assert.Equal(t, "Checked 3 pending payments, confirmed 2, 1 lookups failed", entry.Message)
	assert.NotNil(t, entry.CompletedAt)
	assert.Equal(t, reconcileMinAge, reconciler.minAge)
}

func TestReconcilePendingPaymentsLogsFailure(t *testing.T) {
	db := dbtest.Open(t)
	m := NewCronManager(db, &stubReconciler{err: errors.New("database is locked")}, &stubCleaner{}, logger.NewNop())

	m.ReconcilePendingPayments()

	entry := lastLog(t, db, "reconcile_pending_payments")
	assert.Equal(t, model.CronJobFailed, entry.Status)
	assert.Contains(t, entry.ErrorMsg, "database is locked")
}

func TestCleanupExpiredTokens(t *testing.T) {
	db := dbtest.Open(t)
	m := NewCronManager(db, &stubReconciler{}, &stubCleaner{deleted: 4}, logger.NewNop())

	m.CleanupExpiredTokens()

	entry := lastLog(t, db, "cleanup_expired_tokens")
	assert.Equal(t, model.CronJobCompleted, entry.Status)
	assert.Equal(t, "Deleted 4 expired tokens", entry.Message)
}

func TestCleanupOldJobLogs(t *testing.T) {
	db := dbtest.Open(t)
	m := NewCronManager(db, &stubReconciler{}, &stubCleaner{}, logger.NewNop())

	old := model.CronJobLog{JobName: "cleanup_expired_tokens", Status: model.CronJobCompleted, StartedAt: time.Now().Add(-45 * 24 * time.Hour)}
	stuck := model.CronJobLog{JobName: "reconcile_pending_payments", Status: model.CronJobRunning, StartedAt: time.Now().Add(-45 * 24 * time.Hour)}
	recent := model.CronJobLog{JobName: "cleanup_expired_tokens", Status: model.CronJobCompleted, StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&stuck).Error)
	require.NoError(t, db.Create(&recent).Error)

	m.CleanupOldJobLogs()

	var remaining int64
	require.NoError(t, db.Model(&model.CronJobLog{}).Where("id IN ?", []uint{old.ID, stuck.ID, recent.ID}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)

	entry := lastLog(t, db, "cleanup_old_job_logs")
	assert.Equal(t, "Deleted 1 old job logs", entry.Message)
}

func TestStartRegistersJobs(t *testing.T) {
	m := NewCronManager(dbtest.Open(t), &stubReconciler{}, &stubCleaner{}, logger.NewNop())
	require.NoError(t, m.Start())
	defer m.Stop()

	assert.Len(t, m.cron.Entries(), 3)
}
