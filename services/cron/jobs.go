package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/elearning-api/model"
)

const (
	// Payments younger than this are likely still in the customer's checkout tab
	reconcileMinAge = 5 * time.Minute
	reconcileBatch  = 100
	jobLogRetention = 30 * 24 * time.Hour
)

// ReconcilePendingPayments asks the gateway about pending payments and completes the paid ones.
// Runs every 10 minutes. Unpaid payments are left pending.
func (m *CronManager) ReconcilePendingPayments() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cronLog := m.logJobStart("reconcile_pending_payments")

	summary, err := m.reconciler.ReconcilePending(ctx, reconcileMinAge, reconcileBatch)
	if err != nil {
		m.logJobError(cronLog, fmt.Errorf("failed to reconcile payments: %w", err))
		return
	}

	m.logJobComplete(cronLog,
		fmt.Sprintf("Checked %d pending payments, confirmed %d, %d lookups failed", summary.Checked, summary.Confirmed, summary.Failed),
		map[string]interface{}{
			"checked":   summary.Checked,
			"confirmed": summary.Confirmed,
			"failed":    summary.Failed,
		},
	)
}

// CleanupExpiredTokens deletes blacklist entries for tokens that have expired anyway
func (m *CronManager) CleanupExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cronLog := m.logJobStart("cleanup_expired_tokens")

	deleted, err := m.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		m.logJobError(cronLog, fmt.Errorf("failed to clean up tokens: %w", err))
		return
	}

	m.logJobComplete(cronLog, fmt.Sprintf("Deleted %d expired tokens", deleted), map[string]interface{}{
		"deleted": deleted,
	})
}

// CleanupOldJobLogs prunes job logs older than the retention window
func (m *CronManager) CleanupOldJobLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cronLog := m.logJobStart("cleanup_old_job_logs")

	res := m.db.WithContext(ctx).
		Where("started_at < ? AND status <> ?", time.Now().Add(-jobLogRetention), model.CronJobRunning).
		Delete(&model.CronJobLog{})
	if res.Error != nil {
		m.logJobError(cronLog, fmt.Errorf("failed to delete old job logs: %w", res.Error))
		return
	}

	m.logJobComplete(cronLog, fmt.Sprintf("Deleted %d old job logs", res.RowsAffected), map[string]interface{}{
		"deleted": res.RowsAffected,
	})
}
