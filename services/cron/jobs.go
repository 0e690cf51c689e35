package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/auth"
)

// PurgeExpiredTokens deletes blacklist rows whose tokens have expired on
// their own. Runs hourly; expired tokens can no longer authenticate, so
// keeping the rows only bloats the table.
func (m *CronManager) PurgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "purge_expired_tokens"

	blacklist := auth.NewBlacklistService(m.db)
	deleted, err := blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge expired tokens: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d expired tokens", deleted))
}

// CleanupOldNotifications removes read notifications older than 90 days.
// Unread rows are kept regardless of age.
func (m *CronManager) CleanupOldNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "cleanup_old_notifications"

	notifications := services.NewNotificationService(m.db)
	deleted, err := notifications.CleanupOldNotifications(ctx, 90*24*time.Hour)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup notifications: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old notifications", deleted))
}

// CleanupCronLogs removes finished cron job logs older than 30 days
func (m *CronManager) CleanupCronLogs() {
	jobName := "cleanup_cron_logs"

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	result := m.db.Where("started_at < ? AND status IN ?", cutoff, []string{"completed", "failed"}).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup cron logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old cron logs", result.RowsAffected))
}
