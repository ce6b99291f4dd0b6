package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeguru/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

// GetBySessionID returns (nil, nil) when no row exists so callers can treat
// a stale remembered identifier as a fallback case, not an error.
func (r *SessionRepository) GetBySessionID(sessionID string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

// FindActiveByUserID returns the most recently updated active session for
// the user, or (nil, nil) when none exists.
func (r *SessionRepository) FindActiveByUserID(userID uint) (*model.Session, error) {
	var sessions []model.Session
	err := r.db.
		Where("user_id = ? AND status = ?", userID, model.SessionStatusActive).
		Order("updated_at DESC").
		Limit(1).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("find active session failed: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// DeactivateOthers marks every active session of the user except keepID as
// inactive. Passing an empty keepID deactivates all of them.
func (r *SessionRepository) DeactivateOthers(userID uint, keepID string) error {
	q := r.db.Model(&model.Session{}).
		Where("user_id = ? AND status = ?", userID, model.SessionStatusActive)
	if keepID != "" {
		q = q.Where("session_id <> ?", keepID)
	}
	if err := q.Updates(map[string]interface{}{
		"status":     model.SessionStatusInactive,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return fmt.Errorf("deactivate sessions failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateStatus(sessionID, status string) error {
	err := r.db.Model(&model.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update session status failed: %w", err)
	}
	return nil
}

// Touch bumps updated_at, which drives the "most recently updated active
// session" adoption order.
func (r *SessionRepository) Touch(sessionID string) error {
	err := r.db.Model(&model.Session{}).
		Where("session_id = ?", sessionID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("touch session failed: %w", err)
	}
	return nil
}

// UpdateMemory overwrites the memory blob. Last write wins; concurrent
// writers are not merged.
func (r *SessionRepository) UpdateMemory(sessionID string, memory datatypes.JSON) error {
	err := r.db.Model(&model.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"memory_data": memory,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update session memory failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateMemoryAndResume(sessionID string, memory datatypes.JSON, resumeHTML string) error {
	err := r.db.Model(&model.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"memory_data": memory,
			"resume_html": resumeHTML,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update session memory and resume failed: %w", err)
	}
	return nil
}
