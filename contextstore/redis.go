package contextstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore provides a Redis-backed implementation of the Store interface.
// Sessions are stored as JSON values with a native Redis TTL, so expiry is
// handled by Redis itself and CleanupExpiredSessions is a no-op. Suitable for
// deployments where pipeline instances are routed across processes.
type RedisStore struct {
	client      *redis.Client
	maxMessages int
	ttl         time.Duration
	prefix      string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisMaxMessages sets the per-session message cap.
// Default is DefaultMaxMessages.
func WithRedisMaxMessages(n int) RedisOption {
	return func(s *RedisStore) {
		s.maxMessages = n
	}
}

// WithRedisTTL sets the session time-to-live. Sessions expire this long after
// their last access. Default is 60 minutes. Set to 0 for no expiration.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithRedisPrefix sets the key prefix for Redis keys.
// Default is "voicekit".
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a new Redis-backed context store.
//
// Example:
//
//	store := NewRedisStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithRedisTTL(30*time.Minute),
//	)
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:      client,
		maxMessages: DefaultMaxMessages,
		ttl:         DefaultSessionTTL * time.Minute,
		prefix:      "voicekit",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession allocates a fresh empty session record.
func (s *RedisStore) CreateSession(ctx context.Context) (string, error) {
	id := uuid.New().String()
	rec := &sessionRecord{
		ID:             id,
		LastAccessedAt: time.Now(),
	}
	if err := s.save(ctx, rec); err != nil {
		return "", err
	}
	return id, nil
}

// AddMessage appends a message and rewrites the trimmed record, refreshing
// the session's TTL.
func (s *RedisStore) AddMessage(ctx context.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return ErrInvalidSessionID
	}

	rec, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrSessionNotFound
	}

	now := time.Now()
	rec.Messages = append(rec.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	rec.Messages = trimMessages(rec.Messages, s.maxMessages)
	rec.LastAccessedAt = now
	return s.save(ctx, rec)
}

// GetHistory returns the session's message list. The read refreshes the
// session's TTL, matching the memory store's last-accessed semantics.
func (s *RedisStore) GetHistory(ctx context.Context, sessionID string) ([]Message, error) {
	rec, err := s.load(ctx, sessionID)
	if err != nil || rec == nil {
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, s.sessionKey(sessionID), s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("redis expire failed: %w", err)
		}
	}
	return rec.Messages, nil
}

// GetFormattedContext renders the session history as labeled lines.
func (s *RedisStore) GetFormattedContext(ctx context.Context, sessionID string) (string, error) {
	history, err := s.GetHistory(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return formatHistory(history), nil
}

// SessionExists reports whether the session key is present.
func (s *RedisStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// DeleteSession removes the session key if present.
func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// CleanupExpiredSessions is a no-op: Redis expires session keys natively.
func (s *RedisStore) CleanupExpiredSessions(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) load(ctx context.Context, sessionID string) (*sessionRecord, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) save(ctx context.Context, rec *sessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(rec.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return s.prefix + ":context:" + sessionID
}
