package model

import "time"

const (
	TierFree     = "free"
	TierPremium  = "premium"
	TierBusiness = "business"
)

// Subscription is the user's plan. A missing row means free tier.
type Subscription struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Tier      string     `gorm:"size:16;not null" json:"tier"`
	Active    bool       `gorm:"not null" json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
