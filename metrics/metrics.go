// Package metrics provides lightweight, lock-free analysis counters using
// atomic operations so they impose minimal overhead on hot paths.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics tracks aggregate statistics for the fingerprint engine.
//
// All counters are accessed exclusively through atomic operations, which means:
//   - There is no mutex contention even when many goroutines analyze
//     sessions concurrently.
//   - The struct may be embedded or passed as a pointer without additional
//     synchronisation.
//   - Reads and writes are linearisable: a value read after a write always
//     reflects at least that write.
type Metrics struct {
	// SessionsAnalyzed is the number of AnalyzeSession calls since startup.
	SessionsAnalyzed atomic.Uint64

	// ExactMatches counts lookups resolved by exact key equality.
	ExactMatches atomic.Uint64

	// FuzzyMatches counts lookups resolved GREASE-tolerantly or by
	// similarity.
	FuzzyMatches atomic.Uint64

	// Misses counts lookups that produced no candidate.
	Misses atomic.Uint64

	// Violations counts consistency-rule findings across all sessions.
	Violations atomic.Uint64

	// Observations counts fingerprints handed to the self-learning store.
	Observations atomic.Uint64

	// Promotions counts observations promoted into the database.
	Promotions atomic.Uint64

	// startTime records when the metrics instance was created so that
	// SessionsPerSecond can compute a meaningful rate.
	startTime time.Time
}

// NewMetrics creates a Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// SessionsPerSecond returns the average analysis rate since the Metrics
// instance was created.  Returns 0 when no time at all has elapsed since
// creation, to avoid division by zero.
func (m *Metrics) SessionsPerSecond() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.SessionsAnalyzed.Load()) / elapsed
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	SessionsAnalyzed uint64
	ExactMatches     uint64
	FuzzyMatches     uint64
	Misses           uint64
	Violations       uint64
	Observations     uint64
	Promotions       uint64
}

// Read returns a point-in-time copy of the counters.  The individual loads
// are not performed under one lock, so the snapshot may be very slightly
// inconsistent at nanosecond granularity, which is acceptable for
// monitoring purposes.
func (m *Metrics) Read() Snapshot {
	return Snapshot{
		SessionsAnalyzed: m.SessionsAnalyzed.Load(),
		ExactMatches:     m.ExactMatches.Load(),
		FuzzyMatches:     m.FuzzyMatches.Load(),
		Misses:           m.Misses.Load(),
		Violations:       m.Violations.Load(),
		Observations:     m.Observations.Load(),
		Promotions:       m.Promotions.Load(),
	}
}
