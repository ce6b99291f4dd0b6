package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"resumeguru/internal/model"
)

// SessionCache holds the two pieces of per-user client state the original
// system kept in the browser: the remembered session pointer (the last
// session id a user was working in) and a short-lived snapshot of the
// assembled session view. A dirty marker bridges the gap between a write
// and the next snapshot rebuild.
type SessionCache struct {
	client         *redisv9.Client
	pointerTTL     time.Duration
	snapshotTTL    time.Duration
	dirtyMarkerTTL time.Duration
}

func NewSessionCache(client *redisv9.Client, pointerTTL, snapshotTTL, dirtyMarkerTTL time.Duration) *SessionCache {
	if pointerTTL <= 0 {
		pointerTTL = 12 * time.Hour
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &SessionCache{
		client:         client,
		pointerTTL:     pointerTTL,
		snapshotTTL:    snapshotTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *SessionCache) GetPointer(ctx context.Context, userID uint) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.pointerKey(userID)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get session pointer failed: %w", err)
	}
	return raw, true, nil
}

func (c *SessionCache) SetPointer(ctx context.Context, userID uint, sessionID string) error {
	if err := c.client.Set(ctx, c.pointerKey(userID), sessionID, c.pointerTTL).Err(); err != nil {
		return fmt.Errorf("redis set session pointer failed: %w", err)
	}
	return nil
}

func (c *SessionCache) ClearPointer(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.pointerKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis clear session pointer failed: %w", err)
	}
	return nil
}

func (c *SessionCache) GetSnapshot(ctx context.Context, sessionID string) (*model.SessionSnapshot, bool, error) {
	raw, err := c.client.Get(ctx, c.snapshotKey(sessionID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get snapshot failed: %w", err)
	}

	var snapshot model.SessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached snapshot failed: %w", err)
	}
	return &snapshot, true, nil
}

func (c *SessionCache) SetSnapshot(ctx context.Context, snapshot *model.SessionSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}
	if err := c.client.Set(ctx, c.snapshotKey(snapshot.SessionID), payload, c.snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis set snapshot failed: %w", err)
	}
	return nil
}

func (c *SessionCache) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.snapshotKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete snapshot failed: %w", err)
	}
	return nil
}

func (c *SessionCache) MarkDirty(ctx context.Context, sessionID string) error {
	if err := c.client.Set(ctx, c.dirtyKey(sessionID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *SessionCache) IsDirty(ctx context.Context, sessionID string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *SessionCache) pointerKey(userID uint) string {
	return fmt.Sprintf("resume:last_session:%d", userID)
}

func (c *SessionCache) snapshotKey(sessionID string) string {
	return fmt.Sprintf("resume:session:%s", sessionID)
}

func (c *SessionCache) dirtyKey(sessionID string) string {
	return fmt.Sprintf("resume:session:dirty:%s", sessionID)
}
