// Package contextstore provides short-term conversational memory for the
// voice pipeline: bounded, per-session rolling message histories with
// time-based expiry so abandoned sessions do not leak memory indefinitely.
package contextstore

import (
	"context"
	"errors"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Default limits.
const (
	// DefaultMaxMessages is the per-session message cap; older messages are
	// evicted first once it is exceeded.
	DefaultMaxMessages = 10

	// DefaultSessionTTL is how long a session survives without being accessed.
	DefaultSessionTTL = 60 // minutes
)

// Store defines the interface for conversation context storage.
type Store interface {
	// CreateSession allocates a fresh empty session and returns its identifier.
	CreateSession(ctx context.Context) (string, error)

	// AddMessage appends a timestamped message to the session's history and
	// trims the history to the configured cap. Returns ErrSessionNotFound if
	// the session id is unknown.
	AddMessage(ctx context.Context, sessionID, role, content string) error

	// GetHistory returns a copy of the session's message list, oldest first.
	// Unknown sessions yield (nil, nil) rather than an error.
	GetHistory(ctx context.Context, sessionID string) ([]Message, error)

	// GetFormattedContext renders the history as alternating labeled lines
	// for inclusion in a generation prompt. Empty or unknown sessions yield "".
	GetFormattedContext(ctx context.Context, sessionID string) (string, error)

	// SessionExists reports whether the session id is known.
	SessionExists(ctx context.Context, sessionID string) (bool, error)

	// DeleteSession removes the session. Removing an unknown session is a no-op.
	DeleteSession(ctx context.Context, sessionID string) error

	// CleanupExpiredSessions removes every session whose last access exceeds
	// the configured TTL and returns how many were removed. Designed to be
	// invoked periodically by an external timer.
	CleanupExpiredSessions(ctx context.Context) (int, error)
}

// ErrSessionNotFound is returned when mutating a session that doesn't exist.
var ErrSessionNotFound = errors.New("conversation session not found")

// ErrInvalidSessionID is returned when an empty session id is provided.
var ErrInvalidSessionID = errors.New("session id must not be empty")
