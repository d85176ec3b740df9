package model

import (
	"time"
)

// OrphanedFile records an object-storage key whose remote delete failed.
// Request handlers only ever insert here; the reaper job retries the
// delete out of band and removes the row once the object is gone.
type OrphanedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	FileKey   string    `gorm:"uniqueIndex;not null;type:text" json:"file_key"`
	Reason    string    `gorm:"type:varchar(100)" json:"reason"` // delete_failed, upload_rollback
	Attempts  int       `gorm:"default:0" json:"attempts"`
	LastError string    `gorm:"type:text" json:"last_error"`
}

// TableName specifies the table name for OrphanedFile
func (OrphanedFile) TableName() string {
	return "orphaned_files"
}
