// Package prometheus exposes voicekit pipeline activity as Prometheus metrics.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voicekit"

var (
	// sessionsActive is a gauge of currently open sessions.
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active sessions",
		},
	)

	// sessionsTotal is a counter of sessions started.
	sessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions started",
		},
	)

	// turnsTotal is a counter of completed turns.
	turnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of completed turns",
		},
	)

	// turnDuration is a histogram of end-to-end turn duration in seconds.
	turnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Histogram of end-to-end turn duration in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// transcriptionDuration is a histogram of speech-to-text call duration.
	transcriptionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_duration_seconds",
			Help:      "Duration of speech-to-text calls in seconds",
			Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
		},
	)

	// transcriptionConfidence is a histogram of transcription confidence.
	transcriptionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_confidence",
			Help:      "Histogram of transcription confidence scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		},
	)

	// generationDuration is a histogram of answer generation duration by model.
	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of answer generation in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)

	// lowConfidenceTotal is a counter of turns answered with the fallback.
	lowConfidenceTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_confidence_responses_total",
			Help:      "Total number of responses answered with the low-confidence fallback",
		},
	)

	// synthesisDuration is a histogram of text-to-speech call duration.
	synthesisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Duration of text-to-speech calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// synthesizedAudioBytes is a counter of synthesized audio payload bytes.
	synthesizedAudioBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesized_audio_bytes_total",
			Help:      "Total bytes of synthesized audio",
		},
	)

	// interruptionsTotal is a counter of user interruptions during playback.
	interruptionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interruptions_total",
			Help:      "Total number of interruptions during speech playback",
		},
	)

	// errorsTotal is a counter of turn failures by stage and error type.
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of turn failures",
		},
		[]string{"stage", "type"},
	)

	// stateTransitionsTotal is a counter of state machine transitions.
	stateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of pipeline state transitions",
		},
		[]string{"from", "to"},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		sessionsActive,
		sessionsTotal,
		turnsTotal,
		turnDuration,
		transcriptionDuration,
		transcriptionConfidence,
		generationDuration,
		lowConfidenceTotal,
		synthesisDuration,
		synthesizedAudioBytes,
		interruptionsTotal,
		errorsTotal,
		stateTransitionsTotal,
	}
)

// RecordSessionStart records a session opening.
func RecordSessionStart() {
	sessionsActive.Inc()
	sessionsTotal.Inc()
}

// RecordSessionEnd records a session closing.
func RecordSessionEnd() {
	sessionsActive.Dec()
}

// RecordTurn records a completed turn.
func RecordTurn(durationSeconds float64) {
	turnsTotal.Inc()
	turnDuration.Observe(durationSeconds)
}

// RecordTranscription records a transcription call.
func RecordTranscription(confidence, durationSeconds float64) {
	transcriptionDuration.Observe(durationSeconds)
	transcriptionConfidence.Observe(confidence)
}

// RecordGeneration records an answer generation call.
func RecordGeneration(model string, lowConfidence bool, durationSeconds float64) {
	generationDuration.WithLabelValues(model).Observe(durationSeconds)
	if lowConfidence {
		lowConfidenceTotal.Inc()
	}
}

// RecordSynthesis records a synthesis call.
func RecordSynthesis(audioBytes int, durationSeconds float64) {
	synthesisDuration.Observe(durationSeconds)
	if audioBytes > 0 {
		synthesizedAudioBytes.Add(float64(audioBytes))
	}
}

// RecordInterruption records a playback interruption.
func RecordInterruption() {
	interruptionsTotal.Inc()
}

// RecordError records a turn failure.
func RecordError(stage, errorType string) {
	errorsTotal.WithLabelValues(stage, errorType).Inc()
}

// RecordStateTransition records a state machine transition.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}
