package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Every account is exactly one of these.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User represents a registered portal account, student or teacher
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Role         string         `gorm:"type:varchar(20);not null;default:'student'" json:"role"` // student, teacher
	RollNumber   *string        `gorm:"uniqueIndex;type:varchar(50)" json:"roll_number,omitempty"` // students only, NULL for teachers
	Department   string         `gorm:"type:varchar(100)" json:"department,omitempty"`
	PhotoURL     string         `gorm:"type:text" json:"photo_url,omitempty"`
	PhotoKey     string         `gorm:"type:text" json:"-"` // object-storage key for the photo
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	OwnedCourses   []Course            `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments    []Enrollment        `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Submissions    []Submission        `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Messages       []CourseMessage     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsStudent reports whether the account has the student role.
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsTeacher reports whether the account has the teacher role.
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }

// PublicProfile is the author/member projection embedded in enriched
// responses (submissions, messages, member lists).
type PublicProfile struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	RollNumber *string `json:"roll_number,omitempty"`
	Department string  `json:"department,omitempty"`
	PhotoURL   string  `json:"photo_url,omitempty"`
}

// Public returns the shareable projection of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		Role:       u.Role,
		RollNumber: u.RollNumber,
		Department: u.Department,
		PhotoURL:   u.PhotoURL,
	}
}
