package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CronJobLog mirrors the model for checking
type CronJobLog struct {
	ID          uint `gorm:"primaryKey"`
	JobName     string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
	Duration    int
	Message     string
	ErrorMsg    string
	CreatedAt   time.Time
}

func (CronJobLog) TableName() string {
	return "cron_job_logs"
}

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Build database URL from individual variables
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER_NAME")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}

	dbURL := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	// Connect to database
	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("MAINTENANCE JOB RUNS")
	fmt.Println("========================================")

	// Get recent job runs
	var runs []CronJobLog
	if err := db.Order("started_at DESC").Limit(30).Find(&runs).Error; err != nil {
		log.Fatalf("Failed to fetch job logs: %v", err)
	}

	if len(runs) == 0 {
		fmt.Println("\n❌ No job runs recorded yet")
		return
	}

	fmt.Printf("\n📋 Last %d runs:\n\n", len(runs))

	for _, run := range runs {
		statusIcon := "⏳"
		switch run.Status {
		case "completed":
			statusIcon = "✅"
		case "failed":
			statusIcon = "❌"
		}

		fmt.Printf("─────────────────────────────────────\n")
		fmt.Printf("%s %s (run %d)\n", statusIcon, run.JobName, run.ID)
		fmt.Printf("   Status: %s\n", run.Status)
		fmt.Printf("   Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		if run.CompletedAt != nil {
			fmt.Printf("   Completed: %s (%dms)\n", run.CompletedAt.Format("2006-01-02 15:04:05"), run.Duration)
		}
		if run.Message != "" {
			fmt.Printf("   Message: %s\n", run.Message)
		}
		if run.ErrorMsg != "" {
			fmt.Printf("   Error: %s\n", run.ErrorMsg)
		}
	}

	// Stuck runs never moved past started
	var stuck []CronJobLog
	db.Where("status = ? AND started_at < ?", "started", time.Now().Add(-1*time.Hour)).Find(&stuck)

	fmt.Println("\n========================================")
	fmt.Printf("STUCK RUNS (started > 1h ago): %d\n", len(stuck))
	fmt.Println("========================================")

	for _, run := range stuck {
		fmt.Printf("⚠️  %s (run %d) started %s\n", run.JobName, run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"))
	}
}
