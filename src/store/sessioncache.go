package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/square-key-labs/voxline/src/logger"
)

const sessionKeyPrefix = "session:"

// ErrSessionNotFound is returned when no cached session exists for a caller.
var ErrSessionNotFound = errors.New("session not found")

// CallerSession is the per-caller IVR progress blob cached in Redis.
type CallerSession struct {
	CallerID  string    `json:"caller_id"`
	Step      string    `json:"step"` // greeting, menu, ai
	CallLogID int64     `json:"call_log_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionCache stores caller sessions in Redis with a sliding TTL: updates
// preserve the remaining TTL rather than resetting it.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewSessionCache(redisURL string, ttl time.Duration) (*SessionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &SessionCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		log:    logger.WithPrefix("SessionCache"),
	}, nil
}

func sessionKey(callerID string) string {
	return sessionKeyPrefix + callerID
}

// Create stores a fresh session with the full TTL.
func (c *SessionCache) Create(ctx context.Context, callerID, step string, callLogID int64) (*CallerSession, error) {
	now := time.Now().UTC()
	sess := &CallerSession{
		CallerID:  callerID,
		Step:      step,
		CallLogID: callLogID,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := c.write(ctx, sess, c.ttl); err != nil {
		return nil, err
	}
	c.log.Debug("created session for %s at step %s", callerID, step)
	return sess, nil
}

// Get fetches a caller's session.
func (c *SessionCache) Get(ctx context.Context, callerID string) (*CallerSession, error) {
	raw, err := c.client.Get(ctx, sessionKey(callerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess CallerSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Advance moves a session to a new step, keeping the remaining TTL.
func (c *SessionCache) Advance(ctx context.Context, callerID, step string) (*CallerSession, error) {
	sess, err := c.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}

	remaining, err := c.client.TTL(ctx, sessionKey(callerID)).Result()
	if err != nil || remaining <= 0 {
		remaining = c.ttl
	}

	sess.Step = step
	sess.UpdatedAt = time.Now().UTC()
	if err := c.write(ctx, sess, remaining); err != nil {
		return nil, err
	}
	c.log.Debug("session %s advanced to %s (ttl %s left)", callerID, step, remaining)
	return sess, nil
}

// Delete removes a caller's session.
func (c *SessionCache) Delete(ctx context.Context, callerID string) error {
	if err := c.client.Del(ctx, sessionKey(callerID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns the caller IDs with active sessions.
func (c *SessionCache) List(ctx context.Context) ([]string, error) {
	var callers []string
	iter := c.client.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		callers = append(callers, iter.Val()[len(sessionKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	return callers, nil
}

func (c *SessionCache) write(ctx context.Context, sess *CallerSession, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := c.client.Set(ctx, sessionKey(sess.CallerID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (c *SessionCache) Close() error {
	return c.client.Close()
}
