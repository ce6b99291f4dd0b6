package app

import (
	"time"

	"resumeguru/internal/model"
)

// SubscriptionService resolves a user's effective tier. A missing row, an
// inactive flag or a past expiry all resolve to the free tier.
type SubscriptionService struct {
	subscriptionRepo SubscriptionStore
}

func NewSubscriptionService(subscriptionRepo SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{subscriptionRepo: subscriptionRepo}
}

func (s *SubscriptionService) TierFor(userID uint) (string, error) {
	sub, err := s.subscriptionRepo.GetByUserID(userID)
	if err != nil {
		return "", err
	}
	if sub == nil || !sub.Active {
		return model.TierFree, nil
	}
	if sub.ExpiresAt != nil && sub.ExpiresAt.Before(time.Now()) {
		return model.TierFree, nil
	}
	return sub.Tier, nil
}

type SubscriptionStatus struct {
	Tier      string `json:"tier"`
	Remaining int    `json:"remaining_downloads"`
}

// Status combines the tier with the export quota view.
func (s *SubscriptionService) Status(userID uint, exports *ExportService) (*SubscriptionStatus, error) {
	tier, err := s.TierFor(userID)
	if err != nil {
		return nil, err
	}
	remaining, err := exports.RemainingDownloads(userID)
	if err != nil {
		return nil, err
	}
	return &SubscriptionStatus{Tier: tier, Remaining: remaining}, nil
}
