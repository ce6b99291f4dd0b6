package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"resumeguru/internal/generator"
	"resumeguru/internal/model"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	nextID   uint

	failGet bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionStore) Create(session *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	session.ID = f.nextID
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	clone := *session
	f.sessions[session.SessionID] = &clone
	return nil
}

func (f *fakeSessionStore) GetBySessionID(sessionID string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, errors.New("store down")
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	clone := *session
	return &clone, nil
}

func (f *fakeSessionStore) FindActiveByUserID(userID uint) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *model.Session
	for _, session := range f.sessions {
		if session.UserID != userID || session.Status != model.SessionStatusActive {
			continue
		}
		if newest == nil || session.UpdatedAt.After(newest.UpdatedAt) {
			newest = session
		}
	}
	if newest == nil {
		return nil, nil
	}
	clone := *newest
	return &clone, nil
}

func (f *fakeSessionStore) DeactivateOthers(userID uint, keepID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if session.UserID == userID && session.SessionID != keepID && session.Status == model.SessionStatusActive {
			session.Status = model.SessionStatusInactive
		}
	}
	return nil
}

func (f *fakeSessionStore) UpdateStatus(sessionID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return errors.New("session not found")
	}
	session.Status = status
	session.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSessionStore) Touch(sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[sessionID]; ok {
		session.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeSessionStore) UpdateMemory(sessionID string, memory datatypes.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return errors.New("session not found")
	}
	session.MemoryData = memory
	session.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSessionStore) UpdateMemoryAndResume(sessionID string, memory datatypes.JSON, resumeHTML string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return errors.New("session not found")
	}
	session.MemoryData = memory
	session.ResumeHTML = resumeHTML
	session.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSessionStore) activeCount(userID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, session := range f.sessions {
		if session.UserID == userID && session.Status == model.SessionStatusActive {
			count++
		}
	}
	return count
}

func (f *fakeSessionStore) memoryOf(sessionID string) datatypes.JSON {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[sessionID]; ok {
		return session.MemoryData
	}
	return nil
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages []model.Message
	nextID   uint

	failCreate bool
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (f *fakeMessageStore) Create(message *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("store down")
	}
	f.nextID++
	message.ID = f.nextID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeMessageStore) ListBySessionID(sessionID string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, message := range f.messages {
		if message.SessionID == sessionID {
			out = append(out, message)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type fakeDownloadStore struct {
	mu        sync.Mutex
	downloads []model.Download
}

func newFakeDownloadStore() *fakeDownloadStore {
	return &fakeDownloadStore{}
}

func (f *fakeDownloadStore) Create(download *model.Download) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if download.CreatedAt.IsZero() {
		download.CreatedAt = time.Now()
	}
	f.downloads = append(f.downloads, *download)
	return nil
}

func (f *fakeDownloadStore) CountSince(userID uint, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, download := range f.downloads {
		if download.UserID == userID && !download.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type fakeSubscriptionStore struct {
	subs map[uint]*model.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subs: make(map[uint]*model.Subscription)}
}

func (f *fakeSubscriptionStore) GetByUserID(userID uint) (*model.Subscription, error) {
	sub, ok := f.subs[userID]
	if !ok {
		return nil, nil
	}
	clone := *sub
	return &clone, nil
}

type fakeStateCache struct {
	mu        sync.Mutex
	pointers  map[uint]string
	snapshots map[string]*model.SessionSnapshot
	dirty     map[string]bool
}

func newFakeStateCache() *fakeStateCache {
	return &fakeStateCache{
		pointers:  make(map[uint]string),
		snapshots: make(map[string]*model.SessionSnapshot),
		dirty:     make(map[string]bool),
	}
}

func (f *fakeStateCache) GetPointer(_ context.Context, userID uint) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pointer, ok := f.pointers[userID]
	return pointer, ok, nil
}

func (f *fakeStateCache) SetPointer(_ context.Context, userID uint, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pointers[userID] = sessionID
	return nil
}

func (f *fakeStateCache) ClearPointer(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pointers, userID)
	return nil
}

func (f *fakeStateCache) GetSnapshot(_ context.Context, sessionID string) (*model.SessionSnapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.snapshots[sessionID]
	return snapshot, ok, nil
}

func (f *fakeStateCache) SetSnapshot(_ context.Context, snapshot *model.SessionSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[snapshot.SessionID] = snapshot
	return nil
}

func (f *fakeStateCache) DeleteSnapshot(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, sessionID)
	return nil
}

func (f *fakeStateCache) MarkDirty(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirty[sessionID] = true
	return nil
}

func (f *fakeStateCache) IsDirty(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty[sessionID], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.SessionEvent
	fail   bool
}

func (f *fakePublisher) Publish(_ context.Context, event model.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	f.events = append(f.events, event)
	return nil
}

type fakeGenerator struct {
	mu       sync.Mutex
	requests []generator.Request
	resp     *generator.Response
	err      error
	delay    time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, _ string, req generator.Request) (*generator.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	resp, err, delay := f.resp, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &generator.Response{Message: "ok"}, nil
	}
	clone := *resp
	return &clone, nil
}

type fakeRenderer struct {
	mu           sync.Mutex
	healthErr    error
	previewErr   error
	body         []byte
	contentType  string
	previewCalls int
	lastHTML     string
}

func (f *fakeRenderer) Health(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthErr
}

func (f *fakeRenderer) Preview(_ context.Context, html string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previewCalls++
	f.lastHTML = html
	if f.previewErr != nil {
		return nil, "", f.previewErr
	}
	body := f.body
	if body == nil {
		body = []byte("<!DOCTYPE html><html><body>resume</body></html>")
	}
	contentType := f.contentType
	if contentType == "" {
		contentType = "text/html"
	}
	return body, contentType, nil
}
