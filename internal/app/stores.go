package app

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"resumeguru/internal/generator"
	"resumeguru/internal/model"
)

// Consumer-side contracts for everything the services are wired to. The
// MySQL repositories, Redis cache and HTTP clients satisfy these; tests
// substitute in-memory fakes.

type SessionStore interface {
	Create(session *model.Session) error
	GetBySessionID(sessionID string) (*model.Session, error)
	FindActiveByUserID(userID uint) (*model.Session, error)
	DeactivateOthers(userID uint, keepID string) error
	UpdateStatus(sessionID, status string) error
	Touch(sessionID string) error
	UpdateMemory(sessionID string, memory datatypes.JSON) error
	UpdateMemoryAndResume(sessionID string, memory datatypes.JSON, resumeHTML string) error
}

type MessageStore interface {
	Create(message *model.Message) error
	ListBySessionID(sessionID string) ([]model.Message, error)
}

type DownloadStore interface {
	Create(download *model.Download) error
	CountSince(userID uint, since time.Time) (int64, error)
}

type SubscriptionStore interface {
	GetByUserID(userID uint) (*model.Subscription, error)
}

// SessionStateCache mirrors the client-held state: the remembered session
// pointer per user and the short-lived assembled snapshot per session.
type SessionStateCache interface {
	GetPointer(ctx context.Context, userID uint) (string, bool, error)
	SetPointer(ctx context.Context, userID uint, sessionID string) error
	ClearPointer(ctx context.Context, userID uint) error
	GetSnapshot(ctx context.Context, sessionID string) (*model.SessionSnapshot, bool, error)
	SetSnapshot(ctx context.Context, snapshot *model.SessionSnapshot) error
	DeleteSnapshot(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

type LifecycleEventPublisher interface {
	Publish(ctx context.Context, event model.SessionEvent) error
}

type ContentGenerator interface {
	Generate(ctx context.Context, bearerToken string, req generator.Request) (*generator.Response, error)
}

type ResumeRenderer interface {
	Health(ctx context.Context) error
	Preview(ctx context.Context, html string) ([]byte, string, error)
}
