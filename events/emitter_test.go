package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectAll(bus *EventBus) *[]*Event {
	var received []*Event
	bus.SubscribeAll(func(e *Event) {
		received = append(received, e)
	})
	return &received
}

func TestEmitter_SharedMetadata(t *testing.T) {
	bus := NewEventBus()
	received := collectAll(bus)

	em := NewEmitter(bus, "session-1")
	em.StateChange("turn-1", "idle", "listening")

	require.Len(t, *received, 1)
	e := (*received)[0]
	assert.Equal(t, EventStateChange, e.Type)
	assert.Equal(t, "session-1", e.SessionID)
	assert.Equal(t, "turn-1", e.TurnID)
	assert.Equal(t, "listening", e.State)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Second)

	data, ok := e.Data.(*StateChangeData)
	require.True(t, ok)
	assert.Equal(t, "idle", data.Previous)
	assert.Equal(t, "listening", data.Next)
}

func TestEmitter_TurnLifecycleEvents(t *testing.T) {
	bus := NewEventBus()
	received := collectAll(bus)

	em := NewEmitter(bus, "session-1")
	em.SessionStart("idle", "pt-BR")
	em.ListeningStart("turn-1", "listening")
	em.ListeningEnd("turn-1", "processing", "como ensinar frações?", 0.93, 120*time.Millisecond)
	em.ResponseGenerating("turn-1", "processing")
	em.ResponseReady("turn-1", "processing", &ResponseData{Answer: "...", Confidence: 0.8})
	em.SpeakingStart("turn-1", "speaking")
	em.SpeakingEnd("turn-1", "speaking", &SpeakingData{AudioBytes: 2048})
	em.TurnComplete("turn-1", "idle", nil, 1, time.Second)
	em.SessionEnd("idle", "pt-BR", 1)

	want := []EventType{
		EventSessionStart,
		EventListeningStart,
		EventListeningEnd,
		EventResponseGenerating,
		EventResponseReady,
		EventSpeakingStart,
		EventSpeakingEnd,
		EventTurnComplete,
		EventSessionEnd,
	}
	require.Len(t, *received, len(want))
	for i, e := range *received {
		assert.Equal(t, want[i], e.Type)
	}
}

func TestEmitter_ErrorEvent(t *testing.T) {
	bus := NewEventBus()
	received := collectAll(bus)

	cause := errors.New("transcription failed")
	em := NewEmitter(bus, "session-1")
	em.Error("turn-1", "error", "stt", "stt_error", cause)

	require.Len(t, *received, 1)
	data, ok := (*received)[0].Data.(*ErrorData)
	require.True(t, ok)
	assert.Equal(t, "stt", data.Stage)
	assert.Equal(t, "stt_error", data.ErrorType)
	assert.ErrorIs(t, data.Err, cause)
}

func TestEmitter_NilSafe(t *testing.T) {
	var em *Emitter
	assert.NotPanics(t, func() {
		em.StateChange("t", "idle", "listening")
	})
	assert.NotPanics(t, func() {
		NewEmitter(nil, "s").TurnComplete("t", "idle", nil, 1, 0)
	})
}
