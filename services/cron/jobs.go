package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/services/storage"
	"github.com/sahilchouksey/classbridge-api/utils/auth"
)

// maxReapAttempts caps per-object deletion retries. Rows that hit the cap
// stay in the table for manual inspection.
const maxReapAttempts = 5

// reapBatchSize bounds how many orphaned objects a single run touches.
const reapBatchSize = 200

// CleanupExpiredTokens removes denylist entries whose tokens have expired.
// Runs hourly; an expired token is rejected by validation anyway, so the
// rows only waste space.
func (m *CronManager) CleanupExpiredTokens(entry *model.CronJobLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purged, err := auth.NewBlacklistService(m.db, nil).CleanupExpiredTokens(ctx)
	if err != nil {
		m.logJobError(entry, fmt.Errorf("failed to purge expired tokens: %w", err))
		return
	}

	m.logJobComplete(entry, fmt.Sprintf("Purged %d expired tokens", purged), map[string]interface{}{
		"purged": purged,
	})
}

// ReapOrphanedFiles retries remote deletion of objects that a request-path
// delete could not remove. Runs every 6 hours.
func (m *CronManager) ReapOrphanedFiles(entry *model.CronJobLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	spacesConfig, err := storage.LoadSpacesConfig()
	if err != nil {
		m.logJobComplete(entry, "Object storage not configured, nothing to reap", nil)
		return
	}

	spacesClient, err := storage.NewSpacesClient(*spacesConfig)
	if err != nil {
		m.logJobError(entry, fmt.Errorf("failed to create storage client: %w", err))
		return
	}

	var orphans []model.OrphanedFile
	err = m.db.Where("attempts < ?", maxReapAttempts).
		Order("created_at ASC").
		Limit(reapBatchSize).
		Find(&orphans).Error
	if err != nil {
		m.logJobError(entry, fmt.Errorf("failed to query orphaned files: %w", err))
		return
	}

	if len(orphans) == 0 {
		m.logJobComplete(entry, "No orphaned files found", nil)
		return
	}

	reaped := 0
	failed := 0

	for _, orphan := range orphans {
		if err := spacesClient.DeleteFile(ctx, orphan.FileKey); err != nil {
			log.Printf("[CRON] Failed to delete orphaned object %s: %v", orphan.FileKey, err)
			m.db.Model(&orphan).Updates(map[string]interface{}{
				"attempts":   orphan.Attempts + 1,
				"last_error": err.Error(),
			})
			failed++
			continue
		}

		if err := m.db.Delete(&orphan).Error; err != nil {
			log.Printf("[CRON] Failed to remove orphan record %d: %v", orphan.ID, err)
			failed++
			continue
		}

		reaped++
	}

	m.logJobComplete(entry, fmt.Sprintf("Reaped %d orphaned objects, failed %d", reaped, failed), map[string]interface{}{
		"reaped": reaped,
		"failed": failed,
	})
}

// CleanupJobLogs trims cron job logs older than 30 days. Runs daily.
func (m *CronManager) CleanupJobLogs(entry *model.CronJobLog) {
	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	result := m.db.Unscoped().Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(entry, fmt.Errorf("failed to trim job logs: %w", result.Error))
		return
	}

	m.logJobComplete(entry, fmt.Sprintf("Trimmed %d old job logs", result.RowsAffected), map[string]interface{}{
		"trimmed": result.RowsAffected,
	})
}
