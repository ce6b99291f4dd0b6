package model

import "time"

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is one transcript entry. Entries are totally ordered by CreatedAt
// within a session and replayed in that order on restore.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:36;not null;index" json:"session_id"`
	Sender    string    `gorm:"size:16;not null" json:"sender"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
