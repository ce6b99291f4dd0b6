package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SessionStatusActive    = "active"
	SessionStatusInactive  = "inactive"
	SessionStatusCompleted = "completed"
)

// Session is one resume-building conversation. At most one session per user
// may be active at a time; the reconciler enforces this, the table does not.
type Session struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SessionID  string         `gorm:"size:36;not null;uniqueIndex" json:"session_id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	Status     string         `gorm:"size:16;not null;index" json:"status"`
	MemoryData datatypes.JSON `gorm:"type:json" json:"memory_data,omitempty"`
	// ResumeHTML duplicates the markup embedded in MemoryData so the latest
	// resume can be read without unpacking the memory blob.
	ResumeHTML string    `gorm:"type:mediumtext" json:"resume_html,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SessionEvent is a fire-and-forget lifecycle notification (page unload,
// teardown) applied asynchronously by the session event worker.
type SessionEvent struct {
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
