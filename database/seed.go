package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sahilchouksey/classbridge-api/model"
	"github.com/sahilchouksey/classbridge-api/utils/auth"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminTeacher(); err != nil {
		return fmt.Errorf("failed to seed admin teacher: %w", err)
	}

	// Demo data only outside production
	if os.Getenv("GO_ENV") != "production" {
		if err := s.SeedDemoData(); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminTeacher creates the initial teacher account from environment
// variables. Course creation requires a teacher, so a fresh install needs
// at least this one.
func (s *Seeder) SeedAdminTeacher() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleTeacher).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Teacher account already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping teacher creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	teacher := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "Portal Administrator",
		Role:         model.RoleTeacher,
		Department:   "Administration",
	}

	if err := s.db.Create(teacher).Error; err != nil {
		return err
	}

	log.Printf("✅ Created teacher account: %s\n", teacher.Email)
	return nil
}

// SeedDemoData creates a small demo cohort: one teacher, two students and
// a course with an open assignment. Idempotent via the course code.
func (s *Seeder) SeedDemoData() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Where("code = ?", "CS101").Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Demo course already exists, skipping...")
		return nil
	}

	passwordHash, err := auth.HashPassword("classbridge-demo")
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	teacher := &model.User{
		Email:        "ada.lovelace@classbridge.dev",
		PasswordHash: passwordHash,
		Name:         "Ada Lovelace",
		Role:         model.RoleTeacher,
		Department:   "Computer Science",
	}
	if err := s.db.Create(teacher).Error; err != nil {
		return err
	}

	rollA := "CS2024001"
	rollB := "CS2024002"
	students := []*model.User{
		{
			Email:        "grace.hopper@classbridge.dev",
			PasswordHash: passwordHash,
			Name:         "Grace Hopper",
			Role:         model.RoleStudent,
			RollNumber:   &rollA,
		},
		{
			Email:        "alan.turing@classbridge.dev",
			PasswordHash: passwordHash,
			Name:         "Alan Turing",
			Role:         model.RoleStudent,
			RollNumber:   &rollB,
		},
	}
	for _, student := range students {
		if err := s.db.Create(student).Error; err != nil {
			return err
		}
	}

	course := &model.Course{
		Name:        "Introduction to Computer Science",
		Code:        "CS101",
		Description: "Foundations: programs, data, and a first look at algorithms.",
		TeacherID:   teacher.ID,
	}
	if err := s.db.Create(course).Error; err != nil {
		return err
	}

	for _, student := range students {
		enrollment := &model.Enrollment{CourseID: course.ID, StudentID: student.ID}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(enrollment).Error; err != nil {
			return err
		}
	}

	assignment := &model.Assignment{
		CourseID:    course.ID,
		Title:       "HW1: Hello, World",
		Description: "Write and submit your first program.",
		DueDate:     time.Now().AddDate(0, 0, 14),
		MaxMarks:    100,
		CreatedByID: teacher.ID,
	}
	if err := s.db.Create(assignment).Error; err != nil {
		return err
	}

	log.Printf("✅ Created demo course %s with %d students\n", course.Code, len(students))
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}
