package repository

import (
	"fmt"

	"gorm.io/gorm"

	"resumeguru/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListBySessionID returns the full transcript in creation order. Restore
// replays it as-is; any other order would reshuffle the conversation.
func (r *MessageRepository) ListBySessionID(sessionID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}
