package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/metrics"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentReconciler re-checks stale pending payments against the gateway
type PaymentReconciler interface {
	ReconcilePending(ctx context.Context, minAge time.Duration, limit int) (*services.ReconcileSummary, error)
}

// TokenCleaner removes expired token blacklist entries
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron       *cron.Cron
	db         *gorm.DB
	reconciler PaymentReconciler
	tokens     TokenCleaner
	log        *logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, reconciler PaymentReconciler, tokens TokenCleaner, log *logger.Logger) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:       c,
		db:         db,
		reconciler: reconciler,
		tokens:     tokens,
		log:        log.With("component", "cron"),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.log.Info("starting cron jobs")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	m.log.Info("cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	m.log.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every 10 minutes: re-check pending payments
	if _, err := m.cron.AddFunc("0 */10 * * * *", m.ReconcilePendingPayments); err != nil {
		return err
	}

	// 2. Daily at 3 AM: drop expired blacklist entries
	if _, err := m.cron.AddFunc("0 0 3 * * *", m.CleanupExpiredTokens); err != nil {
		return err
	}

	// 3. Weekly on Sunday at 4 AM: prune old job logs
	if _, err := m.cron.AddFunc("0 0 4 * * 0", m.CleanupOldJobLogs); err != nil {
		return err
	}

	return nil
}

// logJobStart records the start of a cron job and returns its log row
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	m.log.Info("cron job started", "job", jobName)

	cronLog := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronJobRunning,
		StartedAt: time.Now(),
		Metadata:  datatypes.JSONMap{},
	}
	if err := m.db.Create(cronLog).Error; err != nil {
		m.log.Warn("failed to write cron job log", "job", jobName, "error", err)
	}
	return cronLog
}

// logJobComplete records successful completion of a cron job
func (m *CronManager) logJobComplete(cronLog *model.CronJobLog, message string, meta map[string]interface{}) {
	m.finishJob(cronLog, model.CronJobCompleted, map[string]interface{}{
		"message":  message,
		"metadata": datatypes.JSONMap(meta),
	})
	m.log.Info("cron job completed", "job", cronLog.JobName, "message", message)
}

// logJobError records a cron job failure
func (m *CronManager) logJobError(cronLog *model.CronJobLog, err error) {
	m.finishJob(cronLog, model.CronJobFailed, map[string]interface{}{
		"error_msg": err.Error(),
	})
	m.log.Report("cron job failed", err, "job", cronLog.JobName)
}

func (m *CronManager) finishJob(cronLog *model.CronJobLog, status string, fields map[string]interface{}) {
	metrics.CronRuns.WithLabelValues(cronLog.JobName, status).Inc()
	if cronLog.ID == 0 {
		return
	}

	now := time.Now()
	fields["status"] = status
	fields["completed_at"] = now
	fields["duration_ms"] = now.Sub(cronLog.StartedAt).Milliseconds()

	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", cronLog.ID).Updates(fields).Error; err != nil {
		m.log.Warn("failed to update cron job log", "job", cronLog.JobName, "error", err)
	}
}
