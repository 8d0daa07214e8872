package pipeline

import (
	"sort"
	"sync"
	"time"
)

// maxTimingSamples bounds each rolling timing list; older samples roll off.
const maxTimingSamples = 100

// defaultTopErrors is how many error types a snapshot reports.
const defaultTopErrors = 5

// Stats aggregates counters and rolling per-stage timings across the life of
// one pipeline instance.
type Stats struct {
	mu sync.Mutex

	sessions      int
	turns         int
	errors        int
	interruptions int

	transcriptionTimes []time.Duration
	ragTimes           []time.Duration
	synthesisTimes     []time.Duration
	turnTimes          []time.Duration

	errorCounts map[string]int
}

// NewStats creates an empty aggregator.
func NewStats() *Stats {
	return &Stats{
		errorCounts: make(map[string]int),
	}
}

// ErrorCount pairs an error type with its occurrence count.
type ErrorCount struct {
	Type  string
	Count int
}

// Snapshot is a consistent, derived view of the aggregator.
type Snapshot struct {
	TotalSessions      int
	TotalTurns         int
	TotalErrors        int
	TotalInterruptions int

	AvgTranscriptionTime time.Duration
	AvgRAGTime           time.Duration
	AvgSynthesisTime     time.Duration
	AvgTurnTime          time.Duration

	// InterruptionRate is interruptions/turns; 0 when no turns completed.
	InterruptionRate float64
	// ErrorRate is errors/turns; 0 when no turns completed.
	ErrorRate float64

	// TopErrors lists the most frequent error types, descending.
	TopErrors []ErrorCount
}

func (s *Stats) RecordSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions++
}

func (s *Stats) RecordTurn(total time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns++
	s.turnTimes = appendSample(s.turnTimes, total)
}

func (s *Stats) RecordTranscription(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcriptionTimes = appendSample(s.transcriptionTimes, d)
}

func (s *Stats) RecordRAG(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ragTimes = appendSample(s.ragTimes, d)
}

func (s *Stats) RecordSynthesis(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synthesisTimes = appendSample(s.synthesisTimes, d)
}

func (s *Stats) RecordInterruption() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interruptions++
}

func (s *Stats) RecordError(errType ErrorType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
	s.errorCounts[string(errType)]++
}

// Snapshot computes averages and rates. Rates are 0 when no turns have
// completed, never NaN.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalSessions:        s.sessions,
		TotalTurns:           s.turns,
		TotalErrors:          s.errors,
		TotalInterruptions:   s.interruptions,
		AvgTranscriptionTime: average(s.transcriptionTimes),
		AvgRAGTime:           average(s.ragTimes),
		AvgSynthesisTime:     average(s.synthesisTimes),
		AvgTurnTime:          average(s.turnTimes),
		TopErrors:            topErrors(s.errorCounts, defaultTopErrors),
	}

	if s.turns > 0 {
		snap.InterruptionRate = float64(s.interruptions) / float64(s.turns)
		snap.ErrorRate = float64(s.errors) / float64(s.turns)
	}
	return snap
}

// Reset clears all counters and timing lists.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = 0
	s.turns = 0
	s.errors = 0
	s.interruptions = 0
	s.transcriptionTimes = nil
	s.ragTimes = nil
	s.synthesisTimes = nil
	s.turnTimes = nil
	s.errorCounts = make(map[string]int)
}

func appendSample(samples []time.Duration, d time.Duration) []time.Duration {
	samples = append(samples, d)
	if len(samples) > maxTimingSamples {
		samples = samples[len(samples)-maxTimingSamples:]
	}
	return samples
}

func average(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range samples {
		sum += d
	}
	return sum / time.Duration(len(samples))
}

func topErrors(counts map[string]int, n int) []ErrorCount {
	if len(counts) == 0 {
		return nil
	}

	all := make([]ErrorCount, 0, len(counts))
	for t, c := range counts {
		all = append(all, ErrorCount{Type: t, Count: c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Type < all[j].Type
	})

	if len(all) > n {
		all = all[:n]
	}
	return all
}
