package cron

import (
	"encoding/json"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/classbridge-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job names as recorded in cron_job_logs
const (
	jobCleanupExpiredTokens = "cleanup_expired_tokens"
	jobReapOrphanedFiles    = "reap_orphaned_files"
	jobCleanupJobLogs       = "cleanup_job_logs"
)

// CronManager manages all scheduled maintenance jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every hour: purge expired tokens from the denylist
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		entry := m.logJobStart(jobCleanupExpiredTokens)
		m.CleanupExpiredTokens(entry)
	})
	if err != nil {
		return err
	}

	// 2. Every 6 hours: retry deletion of orphaned storage objects
	_, err = m.cron.AddFunc("0 0 */6 * * *", func() {
		entry := m.logJobStart(jobReapOrphanedFiles)
		m.ReapOrphanedFiles(entry)
	})
	if err != nil {
		return err
	}

	// 3. Daily at 3 AM: trim old cron job logs
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		entry := m.logJobStart(jobCleanupJobLogs)
		m.CleanupJobLogs(entry)
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronJobStatusStarted,
		StartedAt: time.Now(),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("[CRON] Failed to record start of job %s: %v", jobName, err)
	}
	return &entry
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string, metadata map[string]interface{}) {
	log.Printf("[CRON] Completed job: %s - %s", entry.JobName, message)

	now := time.Now()
	updates := map[string]interface{}{
		"status":       model.CronJobStatusCompleted,
		"completed_at": now,
		"duration":     now.Sub(entry.StartedAt).Milliseconds(),
		"message":      message,
	}
	if raw := encodeMetadata(metadata); raw != nil {
		updates["metadata"] = raw
	}

	if entry.ID == 0 {
		return
	}
	m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates)
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	log.Printf("[CRON] Error in job: %s - %v", entry.JobName, err)

	now := time.Now()
	if entry.ID == 0 {
		return
	}
	m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(map[string]interface{}{
		"status":       model.CronJobStatusFailed,
		"completed_at": now,
		"duration":     now.Sub(entry.StartedAt).Milliseconds(),
		"error_msg":    err.Error(),
	})
}

func encodeMetadata(metadata map[string]interface{}) datatypes.JSON {
	if len(metadata) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
