package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded for sensitive mutations
const (
	AuditActionCourseCreate   = "course_create"
	AuditActionGradeSet       = "grade_set"
	AuditActionFileDelete     = "file_delete"
	AuditActionPasswordChange = "password_change"
)

// AuditLog is an append-only trail of sensitive mutations
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	ActorID    uint           `gorm:"not null;index" json:"actor_id"`
	Action     string         `gorm:"type:varchar(100);not null" json:"action"`
	TargetType string         `gorm:"type:varchar(100)" json:"target_type"` // e.g., "courses", "submissions"
	TargetID   uint           `json:"target_id"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Relationships
	Actor User `gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
