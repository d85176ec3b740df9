package model

import (
	"time"

	"gorm.io/gorm"
)

// Submission represents one student's file-bearing answer to an assignment.
// The composite unique index keeps at most one submission per
// (assignment, student) pair: later uploads append files to the existing
// record instead of creating a second one.
type Submission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	AssignmentID uint           `gorm:"not null;uniqueIndex:idx_assignment_student" json:"assignment_id"`
	StudentID    uint           `gorm:"not null;uniqueIndex:idx_assignment_student" json:"student_id"`
	SubmittedAt  time.Time      `gorm:"not null" json:"submitted_at"` // refreshed on every upload
	Late         bool           `gorm:"default:false" json:"late"`    // recomputed on every upload
	Score        *int           `json:"score"`                        // nil until graded
	Feedback     *string        `gorm:"type:text" json:"feedback"`

	// Relationships
	Assignment Assignment       `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
	Student    User             `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Files      []SubmissionFile `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"files"`
}

// IsGraded reports whether a score has been set.
func (s *Submission) IsGraded() bool { return s.Score != nil }

// SubmissionFile is one uploaded file belonging to a submission
type SubmissionFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	FileName     string    `gorm:"not null" json:"file_name"`
	FileURL      string    `gorm:"type:text;not null" json:"file_url"`
	FileKey      string    `gorm:"type:text;not null" json:"-"` // object-storage key
	FileType     string    `gorm:"type:varchar(100)" json:"file_type"`
	FileSize     int64     `json:"file_size"`

	// Relationships
	Submission Submission `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SubmissionFile
func (SubmissionFile) TableName() string {
	return "submission_files"
}
