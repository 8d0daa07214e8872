package stt

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by transcription providers. The pipeline matches
// on these with errors.Is to decide how a failed turn is reported.
var (
	// ErrEmptyAudio is returned when Transcribe is called with no audio,
	// before any provider request is made.
	ErrEmptyAudio = errors.New("audio data is empty")

	// ErrRateLimited wraps provider 429 responses. Retryable.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrAudioTooShort is returned when the captured utterance is below the
	// provider's minimum length, typically a tap of the talk button.
	ErrAudioTooShort = errors.New("audio too short to transcribe")
)

// TranscriptionError carries the provider's diagnosis of a failed
// transcription alongside whether retrying the turn could succeed.
type TranscriptionError struct {
	// Provider identifies which transcription backend failed.
	Provider string

	// Code is the provider's error code, when it supplied one.
	Code string

	// Message is the provider's error message.
	Message string

	// Cause is the matching sentinel or transport error, if any.
	Cause error

	// Retryable reports whether the same audio may succeed on retry.
	Retryable bool
}

// NewTranscriptionError builds a TranscriptionError from a provider failure.
func NewTranscriptionError(provider, code, message string, cause error, retryable bool) *TranscriptionError {
	return &TranscriptionError{
		Provider:  provider,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: retryable,
	}
}

func (e *TranscriptionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s transcription error [%s]: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s transcription error: %s", e.Provider, e.Message)
}

// Unwrap exposes the cause so errors.Is reaches the sentinels above.
func (e *TranscriptionError) Unwrap() error {
	return e.Cause
}

// Is additionally matches two TranscriptionErrors on provider and code, so
// tests can compare against a prototype error.
func (e *TranscriptionError) Is(target error) bool {
	if e.Cause != nil && errors.Is(e.Cause, target) {
		return true
	}
	t, ok := target.(*TranscriptionError)
	if !ok {
		return false
	}
	return e.Provider == t.Provider && e.Code == t.Code
}
