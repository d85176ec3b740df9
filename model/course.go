package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a taught course owned by one teacher
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Code        string         `gorm:"uniqueIndex;not null;type:varchar(50)" json:"code"` // e.g., "CS101"
	Description string         `gorm:"type:text" json:"description"`
	TeacherID   uint           `gorm:"not null;index" json:"teacher_id"`

	// Relationships
	Teacher     User             `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"teacher,omitempty"`
	Enrollments []Enrollment     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Materials   []CourseMaterial `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"materials,omitempty"`
	Assignments []Assignment     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Messages    []CourseMessage  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// Enrollment represents course membership for one student. The composite
// primary key keeps a student enrolled at most once per course.
type Enrollment struct {
	CourseID  uint      `gorm:"primaryKey" json:"course_id"`
	StudentID uint      `gorm:"primaryKey" json:"student_id"`
	CreatedAt time.Time `json:"enrolled_at"`

	// Relationships
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}

// CourseMaterial represents a teacher-uploaded study file attached to a course
type CourseMaterial struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	UploaderID uint      `gorm:"not null" json:"uploader_id"`
	FileName   string    `gorm:"not null" json:"file_name"`
	FileURL    string    `gorm:"type:text;not null" json:"file_url"`
	FileKey    string    `gorm:"type:text;not null" json:"-"` // object-storage key
	FileType   string    `gorm:"type:varchar(100)" json:"file_type"`
	FileSize   int64     `json:"file_size"`

	// Relationships
	Course   Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Uploader User   `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for CourseMaterial
func (CourseMaterial) TableName() string {
	return "course_materials"
}
