package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"resumeguru/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// GetByUserID returns (nil, nil) when the user has no subscription row,
// which callers interpret as the free tier.
func (r *SubscriptionRepository) GetByUserID(userID uint) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query subscription failed: %w", err)
	}
	return &sub, nil
}
