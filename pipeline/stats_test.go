package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsZeroTurns(t *testing.T) {
	s := NewStats()
	snap := s.Snapshot()

	assert.Zero(t, snap.TotalTurns)
	assert.Zero(t, snap.InterruptionRate)
	assert.Zero(t, snap.ErrorRate)
	assert.Zero(t, snap.AvgTurnTime)
	assert.Empty(t, snap.TopErrors)
}

func TestStatsRates(t *testing.T) {
	s := NewStats()
	s.RecordSession()
	for i := 0; i < 4; i++ {
		s.RecordTurn(100 * time.Millisecond)
	}
	s.RecordInterruption()
	s.RecordError(ErrorTypeSTT)
	s.RecordError(ErrorTypeSTT)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.TotalSessions)
	assert.Equal(t, 4, snap.TotalTurns)
	assert.Equal(t, 1, snap.TotalInterruptions)
	assert.Equal(t, 2, snap.TotalErrors)
	assert.InDelta(t, 0.25, snap.InterruptionRate, 1e-9)
	assert.InDelta(t, 0.5, snap.ErrorRate, 1e-9)
}

func TestStatsAverages(t *testing.T) {
	s := NewStats()
	s.RecordTranscription(100 * time.Millisecond)
	s.RecordTranscription(300 * time.Millisecond)
	s.RecordRAG(1 * time.Second)
	s.RecordSynthesis(500 * time.Millisecond)
	s.RecordTurn(2 * time.Second)

	snap := s.Snapshot()
	assert.Equal(t, 200*time.Millisecond, snap.AvgTranscriptionTime)
	assert.Equal(t, 1*time.Second, snap.AvgRAGTime)
	assert.Equal(t, 500*time.Millisecond, snap.AvgSynthesisTime)
	assert.Equal(t, 2*time.Second, snap.AvgTurnTime)
}

func TestStatsTimingWindowBounded(t *testing.T) {
	s := NewStats()
	// The first sample falls out of the rolling window once it fills.
	s.RecordRAG(1 * time.Hour)
	for i := 0; i < maxTimingSamples; i++ {
		s.RecordRAG(10 * time.Millisecond)
	}

	snap := s.Snapshot()
	assert.Equal(t, 10*time.Millisecond, snap.AvgRAGTime)
}

func TestStatsTopErrors(t *testing.T) {
	s := NewStats()
	for i := 0; i < 3; i++ {
		s.RecordError(ErrorTypeRAG)
	}
	for i := 0; i < 2; i++ {
		s.RecordError(ErrorTypeSTT)
	}
	s.RecordError(ErrorTypeTTS)

	top := s.Snapshot().TopErrors
	assert.Equal(t, []ErrorCount{
		{Type: string(ErrorTypeRAG), Count: 3},
		{Type: string(ErrorTypeSTT), Count: 2},
		{Type: string(ErrorTypeTTS), Count: 1},
	}, top)
}

func TestStatsReset(t *testing.T) {
	s := NewStats()
	s.RecordSession()
	s.RecordTurn(time.Second)
	s.RecordError(ErrorTypeRAG)
	s.Reset()

	snap := s.Snapshot()
	assert.Zero(t, snap.TotalSessions)
	assert.Zero(t, snap.TotalTurns)
	assert.Zero(t, snap.TotalErrors)
	assert.Empty(t, snap.TopErrors)
}
