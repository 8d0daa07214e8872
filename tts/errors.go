package tts

import "errors"

// Sentinel errors surfaced by synthesis providers. The pipeline matches on
// these with errors.Is when classifying a failed speaking stage.
var (
	// ErrEmptyText is returned when Synthesize is called with nothing to
	// say, before any provider request is made.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidVoice is returned when the configured voice is not offered
	// by the provider.
	ErrInvalidVoice = errors.New("invalid or unsupported voice")

	// ErrRateLimited wraps provider 429 responses. Retryable.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// SynthesisError carries the provider's diagnosis of a failed synthesis
// alongside whether retrying the turn could succeed.
type SynthesisError struct {
	// Provider identifies which synthesis backend failed.
	Provider string

	// Code is the provider's error code, when it supplied one.
	Code string

	// Message is the provider's error message.
	Message string

	// Cause is the matching sentinel or transport error, if any.
	Cause error

	// Retryable reports whether the same text may succeed on retry.
	Retryable bool
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

// Unwrap exposes the cause so errors.Is reaches the sentinels above.
func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

// NewSynthesisError builds a SynthesisError from a provider failure.
func NewSynthesisError(provider, code, message string, cause error, retryable bool) *SynthesisError {
	return &SynthesisError{
		Provider:  provider,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: retryable,
	}
}
