package model

import "time"

// Download records one successful export. Rows are append-only and exist
// solely to compute the free-tier remaining-download counter.
type Download struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ResumeName string    `gorm:"size:128;not null" json:"resume_name"`
	Format     string    `gorm:"size:32;not null" json:"format"`
	ResumeHTML string    `gorm:"type:mediumtext" json:"resume_html,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
