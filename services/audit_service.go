package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/sahilchouksey/classbridge-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditRecorder appends rows to the audit trail. Recording never fails a
// request: errors are logged and swallowed.
type AuditRecorder struct {
	db *gorm.DB
}

// NewAuditRecorder creates a new audit recorder
func NewAuditRecorder(db *gorm.DB) *AuditRecorder {
	return &AuditRecorder{db: db}
}

// Record writes one audit entry
func (a *AuditRecorder) Record(ctx context.Context, actorID uint, action, targetType string, targetID uint, metadata map[string]interface{}) {
	entry := model.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("AuditRecorder: failed to encode metadata for %s: %v", action, err)
		} else {
			entry.Metadata = datatypes.JSON(raw)
		}
	}

	if err := a.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("AuditRecorder: failed to record %s on %s/%d: %v", action, targetType, targetID, err)
	}
}
