package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"resumeguru/internal/model"
	"resumeguru/internal/sanitize"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
)

// WelcomeMessage seeds every new or empty session. Seeding persists it
// immediately so repeated restores see a non-empty transcript and never
// seed twice.
const WelcomeMessage = "👋 Hi! I'm Mark, your ResumeGuru AI assistant. Through my 'Resume Enlightenment' approach, I've helped thousands transform their careers. Say hello or choose one of the quick options below, and together we'll craft your career masterpiece! 🌟"

// ReconcilerService guarantees that any restore ends with exactly one
// coherent session snapshot backed by at most one active session row per
// user. The sessions table does not enforce the single-active invariant;
// this service does, on every path that creates or adopts a session.
type ReconcilerService struct {
	sessionRepo SessionStore
	messageRepo MessageStore
	cache       SessionStateCache
	publisher   LifecycleEventPublisher
}

func NewReconcilerService(
	sessionRepo SessionStore,
	messageRepo MessageStore,
	cache SessionStateCache,
	publisher LifecycleEventPublisher,
) *ReconcilerService {
	return &ReconcilerService{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		cache:       cache,
		publisher:   publisher,
	}
}

// RestoreOrCreate is the entry point on page load and tab focus: follow the
// remembered pointer if one survives, otherwise adopt the newest active
// session, otherwise create one. Store errors surface as-is so callers can
// keep whatever state they already render.
func (s *ReconcilerService) RestoreOrCreate(ctx context.Context, userID uint) (*model.SessionSnapshot, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		if pointer, ok, err := s.cache.GetPointer(ctx, userID); err == nil && ok {
			return s.VerifyAndRestore(ctx, userID, pointer)
		}
	}
	return s.adoptOrCreate(ctx, userID)
}

// VerifyAndRestore validates a remembered identifier. A missing row, a
// foreign owner or a non-active status is not an error: the pointer is
// best-effort state that may outlive the session it names, so those cases
// clear it and fall back to adoption/creation.
func (s *ReconcilerService) VerifyAndRestore(ctx context.Context, userID uint, sessionID string) (*model.SessionSnapshot, error) {
	if userID == 0 || sessionID == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID || session.Status != model.SessionStatusActive {
		if s.cache != nil {
			_ = s.cache.ClearPointer(ctx, userID)
		}
		return s.adoptOrCreate(ctx, userID)
	}

	s.rememberPointer(ctx, userID, session.SessionID)
	return s.buildSnapshot(ctx, session)
}

// ReconcileOnVisibility runs when a tab regains focus. When the remembered
// pointer no longer matches the session the tab has loaded (another tab
// moved on), the returned snapshot replaces the old view wholesale; there
// is no merging of cross-tab state.
func (s *ReconcilerService) ReconcileOnVisibility(ctx context.Context, userID uint, currentSessionID string) (*model.SessionSnapshot, bool, error) {
	if userID == 0 {
		return nil, false, ErrInvalidInput
	}
	if s.cache == nil {
		return nil, false, nil
	}

	pointer, ok, err := s.cache.GetPointer(ctx, userID)
	if err != nil || !ok || pointer == currentSessionID {
		return nil, false, nil
	}

	snapshot, err := s.VerifyAndRestore(ctx, userID, pointer)
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

// MarkInactive is the unload hook: best-effort, never blocks, never fails
// the caller. The lifecycle queue is the durable path; a direct write is
// the fallback when the broker is down.
func (s *ReconcilerService) MarkInactive(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, model.SessionEvent{
			SessionID:  sessionID,
			Status:     model.SessionStatusInactive,
			OccurredAt: time.Now(),
		})
		if err == nil {
			return
		}
		log.Printf("publish session inactive event failed, falling back to direct update: %v", err)
	}

	if err := s.sessionRepo.UpdateStatus(sessionID, model.SessionStatusInactive); err != nil {
		log.Printf("mark session %s inactive failed: %v", sessionID, err)
	}
}

// Reset completes the current session and starts a fresh one. The completed
// identifier is terminal; it is never reused.
func (s *ReconcilerService) Reset(ctx context.Context, userID uint, sessionID string) (*model.SessionSnapshot, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	if sessionID != "" {
		if err := s.sessionRepo.UpdateStatus(sessionID, model.SessionStatusCompleted); err != nil {
			log.Printf("complete session %s failed: %v", sessionID, err)
		}
		if s.cache != nil {
			_ = s.cache.DeleteSnapshot(ctx, sessionID)
		}
	}
	if s.cache != nil {
		_ = s.cache.ClearPointer(ctx, userID)
	}

	return s.createSession(ctx, userID)
}

// PersistTurn appends one transcript entry and bumps the session clock.
// Callers await it: the user entry must be durable before the generator is
// called, and the assistant entry before the next turn is accepted.
func (s *ReconcilerService) PersistTurn(ctx context.Context, sessionID, sender, content string) (*model.Message, error) {
	if sessionID == "" || content == "" {
		return nil, ErrInvalidInput
	}
	if sender != model.SenderUser && sender != model.SenderAssistant {
		return nil, ErrInvalidInput
	}

	message := &model.Message{
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Touch(sessionID); err != nil {
		log.Printf("touch session %s failed: %v", sessionID, err)
	}
	s.invalidateSnapshot(ctx, sessionID)
	return message, nil
}

// PersistMemory overwrites the session's completeness map, embedding the
// resume markup when one is present. Last write wins by design.
func (s *ReconcilerService) PersistMemory(ctx context.Context, sessionID string, memory model.SessionMemory) error {
	if sessionID == "" {
		return ErrInvalidInput
	}

	payload, err := json.Marshal(memory)
	if err != nil {
		return err
	}

	if memory.ResumeHTML != "" {
		err = s.sessionRepo.UpdateMemoryAndResume(sessionID, datatypes.JSON(payload), memory.ResumeHTML)
	} else {
		err = s.sessionRepo.UpdateMemory(sessionID, datatypes.JSON(payload))
	}
	if err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, sessionID)
	return nil
}

// Transcript returns the ordered transcript after an ownership check.
func (s *ReconcilerService) Transcript(ctx context.Context, userID uint, sessionID string) ([]model.Message, error) {
	if userID == 0 || sessionID == "" {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionRepo.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s.messageRepo.ListBySessionID(sessionID)
}

func (s *ReconcilerService) adoptOrCreate(ctx context.Context, userID uint) (*model.SessionSnapshot, error) {
	session, err := s.sessionRepo.FindActiveByUserID(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return s.createSession(ctx, userID)
	}

	// Adoption enforces the invariant too: any older active rows left by
	// crashed tabs are demoted.
	if err := s.sessionRepo.DeactivateOthers(userID, session.SessionID); err != nil {
		log.Printf("deactivate stray sessions for user %d failed: %v", userID, err)
	}

	s.rememberPointer(ctx, userID, session.SessionID)
	return s.buildSnapshot(ctx, session)
}

func (s *ReconcilerService) createSession(ctx context.Context, userID uint) (*model.SessionSnapshot, error) {
	sessionID := uuid.NewString()

	if err := s.sessionRepo.DeactivateOthers(userID, sessionID); err != nil {
		return nil, err
	}

	session := &model.Session{
		SessionID: sessionID,
		UserID:    userID,
		Status:    model.SessionStatusActive,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	s.rememberPointer(ctx, userID, sessionID)
	return s.buildSnapshot(ctx, session)
}

// buildSnapshot assembles the coherent view: ordered transcript, memory,
// sanitized resume. An empty transcript is seeded with the persisted
// welcome message so restores are idempotent.
func (s *ReconcilerService) buildSnapshot(ctx context.Context, session *model.Session) (*model.SessionSnapshot, error) {
	if s.cache != nil {
		if dirty, err := s.cache.IsDirty(ctx, session.SessionID); err == nil && !dirty {
			if cached, hit, err := s.cache.GetSnapshot(ctx, session.SessionID); err == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messageRepo.ListBySessionID(session.SessionID)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		welcome, err := s.PersistTurn(ctx, session.SessionID, model.SenderAssistant, WelcomeMessage)
		if err != nil {
			return nil, err
		}
		messages = []model.Message{*welcome}
	}

	var memory model.SessionMemory
	if len(session.MemoryData) > 0 {
		if err := json.Unmarshal(session.MemoryData, &memory); err != nil {
			log.Printf("decode memory for session %s failed: %v", session.SessionID, err)
			memory = model.SessionMemory{}
		}
	}

	resumeHTML := memory.ResumeHTML
	if resumeHTML == "" {
		resumeHTML = session.ResumeHTML
	}
	resumeHTML = sanitize.HTML(resumeHTML)
	memory.ResumeHTML = resumeHTML

	snapshot := &model.SessionSnapshot{
		SessionID:  session.SessionID,
		Status:     session.Status,
		Messages:   messages,
		Memory:     memory,
		ResumeHTML: resumeHTML,
	}
	if s.cache != nil {
		if dirty, err := s.cache.IsDirty(ctx, session.SessionID); err == nil && !dirty {
			_ = s.cache.SetSnapshot(ctx, snapshot)
		}
	}
	return snapshot, nil
}

func (s *ReconcilerService) rememberPointer(ctx context.Context, userID uint, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPointer(ctx, userID, sessionID); err != nil {
		log.Printf("remember session pointer for user %d failed: %v", userID, err)
	}
}

func (s *ReconcilerService) invalidateSnapshot(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.MarkDirty(ctx, sessionID)
	_ = s.cache.DeleteSnapshot(ctx, sessionID)
}
