package pipeline

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures by the stage they occurred in.
type ErrorType string

const (
	ErrorTypeAudio          ErrorType = "audio_error"
	ErrorTypeSTT            ErrorType = "stt_error"
	ErrorTypeRAG            ErrorType = "rag_error"
	ErrorTypeTTS            ErrorType = "tts_error"
	ErrorTypeSessionTimeout ErrorType = "session_timeout"
	ErrorTypeMaxTurns       ErrorType = "max_turns_reached"
	ErrorTypeInit           ErrorType = "initialization_failed"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Sentinel errors for caller misuse and cooperative cancellation.
var (
	// ErrNoActiveSession is returned when an operation requires a started session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionActive is returned when starting a session while one is active.
	ErrSessionActive = errors.New("a session is already active")

	// ErrInvalidState is returned when an operation is not permitted in the
	// pipeline's current state.
	ErrInvalidState = errors.New("operation not permitted in current state")

	// ErrTurnCancelled is returned when an in-flight turn was discarded by
	// Cancel before it could complete.
	ErrTurnCancelled = errors.New("turn was cancelled")

	// ErrNoAudioBuffered is returned when stopping listening without any
	// audio having been fed.
	ErrNoAudioBuffered = errors.New("no audio buffered")
)

// PipelineError is a structured stage failure surfaced via the error event.
type PipelineError struct {
	// Type classifies the failure.
	Type ErrorType

	// Stage names where it occurred (audio|stt|rag|tts|general).
	Stage string

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error.
	Cause error

	// Recoverable indicates the pipeline can continue with the next turn.
	Recoverable bool
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s stage failed: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Message)
}

// Unwrap returns the underlying error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// newStageError builds a PipelineError for a stage failure.
func newStageError(stage string, cause error) *PipelineError {
	errType := ErrorTypeUnknown
	recoverable := false
	switch stage {
	case "audio":
		errType = ErrorTypeAudio
		recoverable = true
	case "stt":
		errType = ErrorTypeSTT
		recoverable = true
	case "rag":
		errType = ErrorTypeRAG
		recoverable = true
	case "tts":
		errType = ErrorTypeTTS
		recoverable = true
	}
	return &PipelineError{
		Type:        errType,
		Stage:       stage,
		Message:     "turn aborted",
		Cause:       cause,
		Recoverable: recoverable,
	}
}
