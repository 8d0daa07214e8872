package tts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesisErrorMessage(t *testing.T) {
	withCause := NewSynthesisError("openai", "rate_limit_exceeded", "too many requests", ErrRateLimited, true)
	assert.Equal(t, "openai: too many requests: rate limit exceeded", withCause.Error())

	withoutCause := NewSynthesisError("openai", "", "request failed", nil, true)
	assert.Equal(t, "openai: request failed", withoutCause.Error())
}

func TestSynthesisErrorUnwrapsSentinel(t *testing.T) {
	err := NewSynthesisError("openai", "invalid_voice", "voice not found", ErrInvalidVoice, false)

	assert.ErrorIs(t, err, ErrInvalidVoice)
	assert.False(t, err.Retryable)
	assert.NotErrorIs(t, err, errors.New("unrelated"))
}
