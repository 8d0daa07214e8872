package events

import "time"

// Emitter provides helpers for publishing pipeline events with shared metadata.
// The zero value and a nil receiver are safe no-ops so the pipeline can run
// without an attached bus.
type Emitter struct {
	bus       *EventBus
	sessionID string
}

// NewEmitter creates a new event emitter bound to a session.
func NewEmitter(bus *EventBus, sessionID string) *Emitter {
	return &Emitter{
		bus:       bus,
		sessionID: sessionID,
	}
}

// emit publishes an event with shared context fields.
func (e *Emitter) emit(eventType EventType, turnID, state string, data EventData) {
	if e == nil || e.bus == nil {
		return
	}

	e.bus.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		TurnID:    turnID,
		State:     state,
		Data:      data,
	})
}

// SessionStart emits the session_start event.
func (e *Emitter) SessionStart(state, language string) {
	e.emit(EventSessionStart, "", state, &SessionData{Language: language})
}

// SessionEnd emits the session_end event.
func (e *Emitter) SessionEnd(state, language string, turnCount int) {
	e.emit(EventSessionEnd, "", state, &SessionData{Language: language, TurnCount: turnCount})
}

// StateChange emits the state_change event with previous and next state.
func (e *Emitter) StateChange(turnID, previous, next string) {
	e.emit(EventStateChange, turnID, next, &StateChangeData{
		Previous: previous,
		Next:     next,
	})
}

// ListeningStart emits the listening_start event.
func (e *Emitter) ListeningStart(turnID, state string) {
	e.emit(EventListeningStart, turnID, state, nil)
}

// ListeningEnd emits the listening_end event with the transcription result.
func (e *Emitter) ListeningEnd(turnID, state, transcript string, confidence float64, duration time.Duration) {
	e.emit(EventListeningEnd, turnID, state, &ListeningData{
		Transcript: transcript,
		Confidence: confidence,
		Duration:   duration,
	})
}

// ResponseGenerating emits the response_generating event.
func (e *Emitter) ResponseGenerating(turnID, state string) {
	e.emit(EventResponseGenerating, turnID, state, nil)
}

// ResponseReady emits the response_ready event with the generation result.
func (e *Emitter) ResponseReady(turnID, state string, data *ResponseData) {
	e.emit(EventResponseReady, turnID, state, data)
}

// SpeakingStart emits the speaking_start event.
func (e *Emitter) SpeakingStart(turnID, state string) {
	e.emit(EventSpeakingStart, turnID, state, nil)
}

// SpeakingEnd emits the speaking_end event with synthesis details.
func (e *Emitter) SpeakingEnd(turnID, state string, data *SpeakingData) {
	e.emit(EventSpeakingEnd, turnID, state, data)
}

// Interruption emits the interruption event.
func (e *Emitter) Interruption(turnID, state string) {
	e.emit(EventInterruption, turnID, state, nil)
}

// TurnComplete emits the turn_complete event carrying the full turn record.
func (e *Emitter) TurnComplete(turnID, state string, turn any, turnNumber int, total time.Duration) {
	e.emit(EventTurnComplete, turnID, state, &TurnCompleteData{
		Turn:       turn,
		TurnNumber: turnNumber,
		TotalTime:  total,
	})
}

// Error emits the error event.
func (e *Emitter) Error(turnID, state, stage, errorType string, err error) {
	e.emit(EventError, turnID, state, &ErrorData{
		Stage:     stage,
		ErrorType: errorType,
		Err:       err,
	})
}
