package model

import (
	"time"

	"gorm.io/gorm"
)

// Assignment represents a graded task published under a course
type Assignment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	DueDate     time.Time      `gorm:"not null" json:"due_date"`
	MaxMarks    int            `gorm:"not null" json:"max_marks"` // positive, validated at the boundary
	CreatedByID uint           `gorm:"not null" json:"created_by_id"`

	// Relationships
	Course      Course       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	CreatedBy   User         `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"-"`
	Submissions []Submission `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsPastDue reports whether the given time falls after the due date.
func (a *Assignment) IsPastDue(at time.Time) bool {
	return at.After(a.DueDate)
}
