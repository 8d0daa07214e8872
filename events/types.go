package events

import "time"

// EventType identifies the type of event emitted by the voice pipeline.
type EventType string

const (
	// EventSessionStart marks the start of a conversation session.
	EventSessionStart EventType = "session_start"
	// EventSessionEnd marks the end of a conversation session.
	EventSessionEnd EventType = "session_end"

	// EventStateChange marks a pipeline state transition.
	EventStateChange EventType = "state_change"

	// EventListeningStart marks the start of audio capture for a turn.
	EventListeningStart EventType = "listening_start"
	// EventListeningEnd marks the end of audio capture for a turn.
	EventListeningEnd EventType = "listening_end"

	// EventResponseGenerating marks the start of answer generation.
	EventResponseGenerating EventType = "response_generating"
	// EventResponseReady marks answer generation completion.
	EventResponseReady EventType = "response_ready"

	// EventSpeakingStart marks the start of speech synthesis/playback.
	EventSpeakingStart EventType = "speaking_start"
	// EventSpeakingEnd marks the end of speech synthesis/playback.
	EventSpeakingEnd EventType = "speaking_end"

	// EventInterruption marks a user interruption of in-progress speech.
	EventInterruption EventType = "interruption"

	// EventTurnComplete marks a fully completed turn.
	EventTurnComplete EventType = "turn_complete"

	// EventError marks a pipeline error.
	EventError EventType = "error"
)

// EventData is a marker interface for event payloads.
type EventData interface {
	eventData()
}

// Event represents a pipeline event delivered to listeners.
type Event struct {
	Type      EventType
	Timestamp time.Time
	SessionID string
	TurnID    string
	State     string
	Data      EventData
}

// baseEventData provides a shared marker implementation for all event payloads.
type baseEventData struct{}

func (baseEventData) eventData() {}

// StateChangeData carries the previous and next state for state_change events.
type StateChangeData struct {
	baseEventData
	Previous string
	Next     string
}

// ListeningData carries transcription details for listening_end events.
type ListeningData struct {
	baseEventData
	Transcript string
	Confidence float64
	Duration   time.Duration
}

// ResponseData carries generation details for response_ready events.
type ResponseData struct {
	baseEventData
	Answer          string
	Confidence      float64
	IsLowConfidence bool
	SourceCount     int
	Model           string
	Duration        time.Duration
}

// SpeakingData carries synthesis details for speaking events.
type SpeakingData struct {
	baseEventData
	AudioBytes int
	DurationMs int
	Duration   time.Duration
}

// TurnCompleteData carries the completed turn for turn_complete events.
// Turn is declared as any to avoid an import cycle with the pipeline package;
// subscribers assert it to *pipeline.Turn.
type TurnCompleteData struct {
	baseEventData
	Turn       any
	TurnNumber int
	TotalTime  time.Duration
}

// ErrorData carries failure details for error events.
type ErrorData struct {
	baseEventData
	Stage     string
	ErrorType string
	Err       error
}

// SessionData carries session lifecycle details.
type SessionData struct {
	baseEventData
	Language  string
	TurnCount int
}
