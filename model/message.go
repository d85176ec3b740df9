package model

import (
	"time"
)

// CourseMessage is one immutable entry on a course's message board.
// Rows are only ever inserted; display order is CreatedAt ascending.
type CourseMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	AuthorID  uint      `gorm:"not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Author User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
}

// TableName specifies the table name for CourseMessage
func (CourseMessage) TableName() string {
	return "course_messages"
}
