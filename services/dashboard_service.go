package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/classbridge-api/model"
	"gorm.io/gorm"
)

// DashboardService computes the role-specific summary counts. Everything
// is recomputed per request; there is no cached state to invalidate.
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{
		db: db,
	}
}

// StudentDashboard summarizes a student's standing. JSON keys match the
// dashboard contract consumed by the portal frontend.
type StudentDashboard struct {
	Role                    string `json:"role"`
	EnrolledCoursesCount    int64  `json:"enrolledCoursesCount"`
	PendingAssignmentsCount int64  `json:"pendingAssignmentsCount"`
}

// TeacherDashboard summarizes a teacher's grading backlog
type TeacherDashboard struct {
	Role                    string `json:"role"`
	OwnedCoursesCount       int64  `json:"ownedCoursesCount"`
	SubmissionsToGradeCount int64  `json:"submissionsToGradeCount"`
}

// StudentSummary counts the student's enrolled courses and the
// assignments in those courses that are still open (future due date) and
// have no submission from this student.
func (s *DashboardService) StudentSummary(ctx context.Context, studentID uint) (*StudentDashboard, error) {
	summary := &StudentDashboard{Role: model.RoleStudent}

	err := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_id = ?", studentID).
		Count(&summary.EnrolledCoursesCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Joins("JOIN enrollments ON enrollments.course_id = assignments.course_id").
		Where("enrollments.student_id = ?", studentID).
		Where("assignments.due_date > ?", time.Now()).
		Where("NOT EXISTS (SELECT 1 FROM submissions WHERE submissions.assignment_id = assignments.id AND submissions.student_id = ? AND submissions.deleted_at IS NULL)", studentID).
		Count(&summary.PendingAssignmentsCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count pending assignments: %w", err)
	}

	return summary, nil
}

// TeacherSummary counts the teacher's owned courses and the submissions
// across all owned assignments that still lack a score.
func (s *DashboardService) TeacherSummary(ctx context.Context, teacherID uint) (*TeacherDashboard, error) {
	summary := &TeacherDashboard{Role: model.RoleTeacher}

	err := s.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("teacher_id = ?", teacherID).
		Count(&summary.OwnedCoursesCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&model.Submission{}).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id AND assignments.deleted_at IS NULL").
		Joins("JOIN courses ON courses.id = assignments.course_id AND courses.deleted_at IS NULL").
		Where("courses.teacher_id = ?", teacherID).
		Where("submissions.score IS NULL").
		Count(&summary.SubmissionsToGradeCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count ungraded submissions: %w", err)
	}

	return summary, nil
}
