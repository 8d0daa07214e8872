// Package pipeline implements the voice interaction state machine: it owns
// one active session, sequences each turn through listening, processing and
// speaking, emits lifecycle events, and exposes interruption and
// cancellation.
package pipeline

import (
	"time"

	"github.com/edusync/voicekit/tts"
	"github.com/edusync/voicekit/vectorstore"
)

// State is the pipeline's current phase. Exactly one is active per pipeline
// instance at any time.
type State string

const (
	// StateIdle means no turn is in flight.
	StateIdle State = "idle"
	// StateListening means audio is being captured for a new turn.
	StateListening State = "listening"
	// StateProcessing means transcription/generation is running.
	StateProcessing State = "processing"
	// StateSpeaking means the answer is being synthesized/played.
	StateSpeaking State = "speaking"
	// StateInterrupted is the transient state after a speech interruption.
	StateInterrupted State = "interrupted"
	// StateError is the transient state after a stage failure.
	StateError State = "error"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// Transcription holds the recognized (or directly provided) user text.
type Transcription struct {
	Text         string   `json:"text"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// TurnTimestamps records when each stage of a turn finished.
// Each field is set exactly once, in declaration order, as the turn advances.
type TurnTimestamps struct {
	Started               time.Time `json:"started"`
	TranscriptionComplete time.Time `json:"transcription_complete"`
	ResponseGenerated     time.Time `json:"response_generated"`
	ResponseComplete      time.Time `json:"response_complete"`
}

// Turn is one request/response exchange within a session. It is exclusively
// owned by its Session and never shared.
type Turn struct {
	ID         string `json:"id"`
	TurnNumber int    `json:"turn_number"`

	Transcription     Transcription `json:"transcription"`
	AssistantResponse string        `json:"assistant_response"`
	AssistantAudio    *tts.Result   `json:"assistant_audio,omitempty"`

	// Sources and Confidence carry the retrieval evidence behind the answer.
	Sources         []vectorstore.SearchResult `json:"sources,omitempty"`
	Confidence      float64                    `json:"confidence"`
	IsLowConfidence bool                       `json:"is_low_confidence"`

	// WasInterrupted is true only if speech playback was cut short by the user.
	WasInterrupted bool `json:"was_interrupted"`

	Timestamps            TurnTimestamps `json:"timestamps"`
	TotalProcessingTimeMs int64          `json:"total_processing_time_ms"`
}

// Session is one continuous conversation: an ordered, append-only sequence
// of completed turns.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Language  string     `json:"language"`
	Turns     []*Turn    `json:"turns"`

	// ContextID addresses this session's record in the context store.
	ContextID string `json:"context_id"`
}

// snapshot returns a copy with an independent turn slice, safe for callers
// to inspect while the pipeline keeps mutating the original.
func (s *Session) snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Turns = make([]*Turn, len(s.Turns))
	for i, t := range s.Turns {
		tc := *t
		cp.Turns[i] = &tc
	}
	return &cp
}
