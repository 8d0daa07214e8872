// Package prometheus exposes voicekit pipeline activity as Prometheus metrics.
package prometheus

import (
	"github.com/edusync/voicekit/events"
)

// MetricsListener records pipeline events as Prometheus metrics.
// It implements the events.Listener signature and should be registered
// with an EventBus using SubscribeAll.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
// This method is designed to be used with EventBus.SubscribeAll.
func (l *MetricsListener) Handle(event *events.Event) {
	switch event.Type {
	case events.EventSessionStart:
		RecordSessionStart()
	case events.EventSessionEnd:
		RecordSessionEnd()
	case events.EventStateChange:
		l.handleStateChange(event)
	case events.EventListeningEnd:
		l.handleListeningEnd(event)
	case events.EventResponseReady:
		l.handleResponseReady(event)
	case events.EventSpeakingEnd:
		l.handleSpeakingEnd(event)
	case events.EventInterruption:
		RecordInterruption()
	case events.EventTurnComplete:
		l.handleTurnComplete(event)
	case events.EventError:
		l.handleError(event)
	default:
		// Ignore events that don't have metrics
	}
}

func (l *MetricsListener) handleStateChange(event *events.Event) {
	if data, ok := event.Data.(*events.StateChangeData); ok {
		RecordStateTransition(data.Previous, data.Next)
	}
}

func (l *MetricsListener) handleListeningEnd(event *events.Event) {
	if data, ok := event.Data.(*events.ListeningData); ok {
		RecordTranscription(data.Confidence, data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleResponseReady(event *events.Event) {
	if data, ok := event.Data.(*events.ResponseData); ok {
		RecordGeneration(data.Model, data.IsLowConfidence, data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleSpeakingEnd(event *events.Event) {
	if data, ok := event.Data.(*events.SpeakingData); ok {
		RecordSynthesis(data.AudioBytes, data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleTurnComplete(event *events.Event) {
	if data, ok := event.Data.(*events.TurnCompleteData); ok {
		RecordTurn(data.TotalTime.Seconds())
	}
}

func (l *MetricsListener) handleError(event *events.Event) {
	if data, ok := event.Data.(*events.ErrorData); ok {
		RecordError(data.Stage, data.ErrorType)
	}
}

// Listener returns an events.Listener function that can be registered with an EventBus.
func (l *MetricsListener) Listener() events.Listener {
	return l.Handle
}
