package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"resumeguru/internal/model"
)

type DownloadRepository struct {
	db *gorm.DB
}

func NewDownloadRepository(db *gorm.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

func (r *DownloadRepository) Create(download *model.Download) error {
	if err := r.db.Create(download).Error; err != nil {
		return fmt.Errorf("create download record failed: %w", err)
	}
	return nil
}

// CountSince counts the user's exports at or after the given instant. The
// quota window is the current calendar month; the caller supplies its start.
func (r *DownloadRepository) CountSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Download{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count downloads failed: %w", err)
	}
	return count, nil
}
