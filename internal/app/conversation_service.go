package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"

	"resumeguru/internal/generator"
	"resumeguru/internal/model"
	"resumeguru/internal/sanitize"
)

var (
	ErrMessageEmpty = errors.New("message is empty")
	ErrTurnInFlight = errors.New("a turn is already being processed for this session")
)

const (
	degradedNotice = "I'm experiencing high demand right now. Please try again in a moment."
	genericNotice  = "Failed to process your message. Please try again."
	partialNotice  = "Part of this response may be incomplete. Please try again if something looks off."
)

// ConversationService runs the turn loop. Turns on one session are strictly
// serialized: the user entry is durable before the generator is called, and
// the assistant entry is durable before the result is returned. A failed
// turn leaves memory and resume state untouched.
type ConversationService struct {
	sessionRepo SessionStore
	reconciler  *ReconcilerService
	generator   ContentGenerator

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewConversationService(sessionRepo SessionStore, reconciler *ReconcilerService, gen ContentGenerator) *ConversationService {
	return &ConversationService{
		sessionRepo: sessionRepo,
		reconciler:  reconciler,
		generator:   gen,
		inflight:    make(map[string]struct{}),
	}
}

type SubmitTurnInput struct {
	UserID      uint
	UserEmail   string
	SessionID   string
	Content     string
	BearerToken string
}

// TurnResult carries everything the turn produced. Notice is a user-facing
// advisory (generation failed, provider degraded); when it is set the
// assistant message may be absent.
type TurnResult struct {
	UserMessage      *model.Message        `json:"userMessage"`
	AssistantMessage *model.Message        `json:"assistantMessage,omitempty"`
	Memory           *model.SessionMemory  `json:"memory,omitempty"`
	ResumeHTML       string                `json:"resumeHtml,omitempty"`
	Notice           string                `json:"notice,omitempty"`
}

// SubmitTurn processes one user message end to end.
func (s *ConversationService) SubmitTurn(ctx context.Context, input SubmitTurnInput) (*TurnResult, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}
	if input.UserID == 0 || input.SessionID == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetBySessionID(input.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != input.UserID {
		return nil, ErrSessionNotFound
	}

	if !s.acquire(input.SessionID) {
		return nil, ErrTurnInFlight
	}
	defer s.release(input.SessionID)

	userMessage, err := s.reconciler.PersistTurn(ctx, input.SessionID, model.SenderUser, content)
	if err != nil {
		return nil, err
	}
	result := &TurnResult{UserMessage: userMessage}

	resp, err := s.generator.Generate(ctx, input.BearerToken, generator.Request{
		Message:   content,
		SessionID: input.SessionID,
		UserID:    strconv.FormatUint(uint64(input.UserID), 10),
		UserEmail: input.UserEmail,
	})
	if err != nil {
		// The user's entry stays in the transcript; memory and resume
		// state stay exactly as they were before the turn.
		if errors.Is(err, generator.ErrUpstreamDegraded) {
			result.Notice = degradedNotice
		} else {
			result.Notice = genericNotice
		}
		log.Printf("generate reply for session %s failed: %v", input.SessionID, err)
		return result, nil
	}

	assistantMessage, err := s.reconciler.PersistTurn(ctx, input.SessionID, model.SenderAssistant, resp.Message)
	if err != nil {
		return nil, err
	}
	result.AssistantMessage = assistantMessage
	// The generator's error strings leak provider internals; users get a
	// fixed advisory instead.
	if resp.Error != "" {
		result.Notice = partialNotice
	}

	resumeHTML := sanitize.HTML(resp.ResumeHTML)
	result.ResumeHTML = resumeHTML

	if memory := s.buildMemoryUpdate(session, resp.CollectedInfo, resumeHTML); memory != nil {
		if err := s.reconciler.PersistMemory(ctx, input.SessionID, *memory); err != nil {
			// Memory is rebuilt from the transcript on the next
			// generator turn, so a failed write degrades rather
			// than fails the turn.
			log.Printf("persist memory for session %s failed: %v", input.SessionID, err)
		} else {
			result.Memory = memory
		}
	}

	return result, nil
}

// buildMemoryUpdate decides what, if anything, to write back. A response
// with collected info replaces the stored map outright; a response carrying
// only resume markup merges it into the existing map. Either way the
// embedded markup copy survives: when the response omits it, the session's
// last-known markup is carried forward rather than zeroed.
func (s *ConversationService) buildMemoryUpdate(session *model.Session, info *model.CollectedInfo, resumeHTML string) *model.SessionMemory {
	if info == nil && resumeHTML == "" {
		return nil
	}

	memory := model.SessionMemory{}
	if len(session.MemoryData) > 0 {
		if err := json.Unmarshal(session.MemoryData, &memory); err != nil {
			log.Printf("decode memory for session %s failed: %v", session.SessionID, err)
			memory = model.SessionMemory{}
		}
	}
	if info != nil {
		memory.CollectedInfo = *info
	}
	if resumeHTML != "" {
		memory.ResumeHTML = resumeHTML
	} else if memory.ResumeHTML == "" {
		memory.ResumeHTML = session.ResumeHTML
	}
	return &memory
}

func (s *ConversationService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[sessionID]; busy {
		return false
	}
	s.inflight[sessionID] = struct{}{}
	return true
}

func (s *ConversationService) release(sessionID string) {
	s.mu.Lock()
	delete(s.inflight, sessionID)
	s.mu.Unlock()
}
