package contextstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore provides an in-memory implementation of the Store interface.
// It is thread-safe and suitable for development, testing, and single-instance
// deployments. For distributed systems, use RedisStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionRecord

	maxMessages int
	ttl         time.Duration
	now         func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMaxMessages sets the per-session message cap.
// Default is DefaultMaxMessages.
func WithMaxMessages(n int) MemoryOption {
	return func(s *MemoryStore) {
		s.maxMessages = n
	}
}

// WithSessionTTL sets how long a session survives without being accessed
// before CleanupExpiredSessions removes it. Default is 60 minutes.
// Set to 0 to disable expiry.
func WithSessionTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

// WithClock sets the time source used for message timestamps and expiry.
// Tests use this to drive TTL behavior deterministically.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a new in-memory context store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[string]*sessionRecord),
		maxMessages: DefaultMaxMessages,
		ttl:         DefaultSessionTTL * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession allocates a fresh empty session record.
func (s *MemoryStore) CreateSession(ctx context.Context) (string, error) {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &sessionRecord{
		ID:             id,
		LastAccessedAt: s.now(),
	}
	return id, nil
}

// AddMessage appends a timestamped message, trims the history to the cap,
// and touches the session's last-accessed time.
func (s *MemoryStore) AddMessage(ctx context.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return ErrInvalidSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.sessions[sessionID]
	if !exists {
		return ErrSessionNotFound
	}

	now := s.now()
	rec.Messages = append(rec.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	rec.Messages = trimMessages(rec.Messages, s.maxMessages)
	rec.LastAccessedAt = now
	return nil
}

// GetHistory returns a copy of the message list so callers can mutate it
// freely. Reading touches the last-accessed time.
func (s *MemoryStore) GetHistory(ctx context.Context, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.sessions[sessionID]
	if !exists {
		return nil, nil
	}

	rec.LastAccessedAt = s.now()
	history := make([]Message, len(rec.Messages))
	copy(history, rec.Messages)
	return history, nil
}

// GetFormattedContext renders the session history as labeled lines.
func (s *MemoryStore) GetFormattedContext(ctx context.Context, sessionID string) (string, error) {
	history, err := s.GetHistory(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return formatHistory(history), nil
}

// SessionExists reports whether the session id is known.
func (s *MemoryStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.sessions[sessionID]
	return exists, nil
}

// DeleteSession removes the session if present.
func (s *MemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// CleanupExpiredSessions removes every session whose last access exceeds the
// TTL. It is driven by an external tick; nothing in the store schedules it.
func (s *MemoryStore) CleanupExpiredSessions(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, rec := range s.sessions {
		if now.Sub(rec.LastAccessedAt) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
