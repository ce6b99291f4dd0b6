package app

import (
	"context"
	"strings"
	"testing"

	"resumeguru/internal/model"
)

func newTestReconciler() (*ReconcilerService, *fakeSessionStore, *fakeMessageStore, *fakeStateCache, *fakePublisher) {
	sessions := newFakeSessionStore()
	messages := newFakeMessageStore()
	cache := newFakeStateCache()
	publisher := &fakePublisher{}
	svc := NewReconcilerService(sessions, messages, cache, publisher)
	return svc, sessions, messages, cache, publisher
}

func TestRestoreOrCreateNewUser(t *testing.T) {
	svc, sessions, _, cache, _ := newTestReconciler()
	ctx := context.Background()

	snapshot, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if snapshot.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if snapshot.Status != model.SessionStatusActive {
		t.Fatalf("status = %q, want active", snapshot.Status)
	}
	if len(snapshot.Messages) != 1 || snapshot.Messages[0].Content != WelcomeMessage {
		t.Fatalf("expected seeded welcome message, got %d messages", len(snapshot.Messages))
	}
	if snapshot.Messages[0].Sender != model.SenderAssistant {
		t.Fatalf("welcome sender = %q, want assistant", snapshot.Messages[0].Sender)
	}
	if got := sessions.activeCount(1); got != 1 {
		t.Fatalf("active sessions = %d, want 1", got)
	}
	if pointer, ok, _ := cache.GetPointer(ctx, 1); !ok || pointer != snapshot.SessionID {
		t.Fatalf("pointer = %q ok=%v, want %q", pointer, ok, snapshot.SessionID)
	}
}

func TestRestoreOrCreateIsIdempotent(t *testing.T) {
	svc, sessions, _, _, _ := newTestReconciler()
	ctx := context.Background()

	first, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("first restore: %v", err)
	}
	second, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("second restore: %v", err)
	}

	if first.SessionID != second.SessionID {
		t.Fatalf("restore changed sessions: %q then %q", first.SessionID, second.SessionID)
	}
	if len(second.Messages) != 1 {
		t.Fatalf("welcome seeded twice: %d messages", len(second.Messages))
	}
	if got := sessions.activeCount(1); got != 1 {
		t.Fatalf("active sessions = %d, want 1", got)
	}
}

func TestVerifyAndRestoreFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		setup func(svc *ReconcilerService, sessions *fakeSessionStore, ctx context.Context) string
	}{
		{
			name: "unknown id",
			setup: func(_ *ReconcilerService, _ *fakeSessionStore, _ context.Context) string {
				return "no-such-session"
			},
		},
		{
			name: "foreign owner",
			setup: func(svc *ReconcilerService, _ *fakeSessionStore, ctx context.Context) string {
				other, err := svc.RestoreOrCreate(ctx, 99)
				if err != nil {
					t.Fatalf("seed other user: %v", err)
				}
				return other.SessionID
			},
		},
		{
			name: "completed session",
			setup: func(svc *ReconcilerService, sessions *fakeSessionStore, ctx context.Context) string {
				own, err := svc.RestoreOrCreate(ctx, 1)
				if err != nil {
					t.Fatalf("seed session: %v", err)
				}
				if err := sessions.UpdateStatus(own.SessionID, model.SessionStatusCompleted); err != nil {
					t.Fatalf("complete session: %v", err)
				}
				return own.SessionID
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions, _, _, _ := newTestReconciler()
			ctx := context.Background()
			staleID := tt.setup(svc, sessions, ctx)

			snapshot, err := svc.VerifyAndRestore(ctx, 1, staleID)
			if err != nil {
				t.Fatalf("VerifyAndRestore must fall back, got error: %v", err)
			}
			if snapshot.SessionID == staleID {
				t.Fatal("stale session id was restored")
			}
			if snapshot.Status != model.SessionStatusActive {
				t.Fatalf("status = %q, want active", snapshot.Status)
			}
			if got := sessions.activeCount(1); got != 1 {
				t.Fatalf("active sessions = %d, want 1", got)
			}
		})
	}
}

func TestVerifyAndRestoreSurfacesStoreErrors(t *testing.T) {
	svc, sessions, _, _, _ := newTestReconciler()
	sessions.failGet = true

	if _, err := svc.VerifyAndRestore(context.Background(), 1, "any"); err == nil {
		t.Fatal("expected store error to surface")
	}
}

func TestAdoptionDeactivatesStraySessions(t *testing.T) {
	svc, sessions, _, cache, _ := newTestReconciler()
	ctx := context.Background()

	first, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	// A crashed tab can leave a second active row behind.
	stray := &model.Session{SessionID: "stray", UserID: 1, Status: model.SessionStatusActive}
	if err := sessions.Create(stray); err != nil {
		t.Fatalf("create stray: %v", err)
	}
	if err := cache.ClearPointer(ctx, 1); err != nil {
		t.Fatalf("clear pointer: %v", err)
	}

	snapshot, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if got := sessions.activeCount(1); got != 1 {
		t.Fatalf("active sessions = %d, want 1", got)
	}
	if snapshot.SessionID != "stray" && snapshot.SessionID != first.SessionID {
		t.Fatalf("adopted an unknown session %q", snapshot.SessionID)
	}
}

func TestResetStartsFreshSession(t *testing.T) {
	svc, sessions, _, _, _ := newTestReconciler()
	ctx := context.Background()

	old, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if _, err := svc.PersistTurn(ctx, old.SessionID, model.SenderUser, "hello"); err != nil {
		t.Fatalf("persist turn: %v", err)
	}

	fresh, err := svc.Reset(ctx, 1, old.SessionID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if fresh.SessionID == old.SessionID {
		t.Fatal("reset reused the old session id")
	}
	if len(fresh.Messages) != 1 || fresh.Messages[0].Content != WelcomeMessage {
		t.Fatalf("fresh session not seeded with welcome, got %d messages", len(fresh.Messages))
	}

	oldRow, err := sessions.GetBySessionID(old.SessionID)
	if err != nil {
		t.Fatalf("get old session: %v", err)
	}
	if oldRow.Status != model.SessionStatusCompleted {
		t.Fatalf("old status = %q, want completed", oldRow.Status)
	}
	if got := sessions.activeCount(1); got != 1 {
		t.Fatalf("active sessions = %d, want 1", got)
	}
}

func TestReconcileOnVisibility(t *testing.T) {
	svc, _, _, _, _ := newTestReconciler()
	ctx := context.Background()

	current, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	// Same session: nothing to replace.
	snapshot, replaced, err := svc.ReconcileOnVisibility(ctx, 1, current.SessionID)
	if err != nil {
		t.Fatalf("ReconcileOnVisibility: %v", err)
	}
	if replaced || snapshot != nil {
		t.Fatal("expected no replacement when tab matches the pointer")
	}

	// Another tab resets; this tab still shows the old session.
	fresh, err := svc.Reset(ctx, 1, current.SessionID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	snapshot, replaced, err = svc.ReconcileOnVisibility(ctx, 1, current.SessionID)
	if err != nil {
		t.Fatalf("ReconcileOnVisibility after reset: %v", err)
	}
	if !replaced {
		t.Fatal("expected replacement after another tab moved on")
	}
	if snapshot.SessionID != fresh.SessionID {
		t.Fatalf("replacement snapshot = %q, want %q", snapshot.SessionID, fresh.SessionID)
	}
}

func TestPersistTurnOrdering(t *testing.T) {
	svc, _, messages, _, _ := newTestReconciler()
	ctx := context.Background()

	snapshot, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if _, err := svc.PersistTurn(ctx, snapshot.SessionID, model.SenderUser, "first"); err != nil {
		t.Fatalf("persist user turn: %v", err)
	}
	if _, err := svc.PersistTurn(ctx, snapshot.SessionID, model.SenderAssistant, "second"); err != nil {
		t.Fatalf("persist assistant turn: %v", err)
	}

	transcript, err := messages.ListBySessionID(snapshot.SessionID)
	if err != nil {
		t.Fatalf("list transcript: %v", err)
	}
	want := []string{WelcomeMessage, "first", "second"}
	if len(transcript) != len(want) {
		t.Fatalf("transcript length = %d, want %d", len(transcript), len(want))
	}
	for i, content := range want {
		if transcript[i].Content != content {
			t.Fatalf("transcript[%d] = %q, want %q", i, transcript[i].Content, content)
		}
	}
}

func TestPersistTurnRejectsBadInput(t *testing.T) {
	svc, _, _, _, _ := newTestReconciler()
	ctx := context.Background()

	if _, err := svc.PersistTurn(ctx, "", model.SenderUser, "hi"); err == nil {
		t.Fatal("expected error for empty session id")
	}
	if _, err := svc.PersistTurn(ctx, "sid", "bot", "hi"); err == nil {
		t.Fatal("expected error for unknown sender")
	}
}

func TestMarkInactivePrefersQueue(t *testing.T) {
	svc, sessions, _, _, publisher := newTestReconciler()
	ctx := context.Background()

	snapshot, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	svc.MarkInactive(ctx, snapshot.SessionID)

	if len(publisher.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(publisher.events))
	}
	if publisher.events[0].SessionID != snapshot.SessionID || publisher.events[0].Status != model.SessionStatusInactive {
		t.Fatalf("unexpected event %+v", publisher.events[0])
	}
	// The queue is the durable path; the row is untouched until the worker runs.
	row, _ := sessions.GetBySessionID(snapshot.SessionID)
	if row.Status != model.SessionStatusActive {
		t.Fatalf("row status = %q, want active until worker applies", row.Status)
	}
}

func TestMarkInactiveFallsBackToDirectUpdate(t *testing.T) {
	svc, sessions, _, _, publisher := newTestReconciler()
	publisher.fail = true
	ctx := context.Background()

	snapshot, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	svc.MarkInactive(ctx, snapshot.SessionID)

	row, _ := sessions.GetBySessionID(snapshot.SessionID)
	if row.Status != model.SessionStatusInactive {
		t.Fatalf("row status = %q, want inactive after fallback", row.Status)
	}
}

func TestBuildSnapshotSanitizesResume(t *testing.T) {
	svc, _, _, _, _ := newTestReconciler()
	ctx := context.Background()

	snapshot, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	memory := model.SessionMemory{ResumeHTML: `<div class="resume"><script>alert(1)</script><p>Jane</p></div>`}
	if err := svc.PersistMemory(ctx, snapshot.SessionID, memory); err != nil {
		t.Fatalf("persist memory: %v", err)
	}

	restored, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.ResumeHTML == "" {
		t.Fatal("resume markup lost")
	}
	if strings.Contains(restored.ResumeHTML, "<script") {
		t.Fatalf("script survived sanitization: %q", restored.ResumeHTML)
	}
}

func TestTranscriptOwnership(t *testing.T) {
	svc, _, _, _, _ := newTestReconciler()
	ctx := context.Background()

	snapshot, err := svc.RestoreOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if _, err := svc.Transcript(ctx, 2, snapshot.SessionID); err != ErrSessionNotFound {
		t.Fatalf("foreign transcript err = %v, want ErrSessionNotFound", err)
	}
	transcript, err := svc.Transcript(ctx, 1, snapshot.SessionID)
	if err != nil {
		t.Fatalf("own transcript: %v", err)
	}
	if len(transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1", len(transcript))
	}
}
