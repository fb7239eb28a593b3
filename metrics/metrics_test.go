package metrics_test

import (
	"sync"
	"testing"

	"github.com/firasghr/GoFingerprintEngine/metrics"
)

func TestCounters(t *testing.T) {
	m := metrics.NewMetrics()
	m.SessionsAnalyzed.Add(2)
	m.ExactMatches.Add(1)
	m.Misses.Add(1)
	m.Observations.Add(3)

	snap := m.Read()
	if snap.SessionsAnalyzed != 2 {
		t.Errorf("SessionsAnalyzed: got %d, want 2", snap.SessionsAnalyzed)
	}
	if snap.ExactMatches != 1 {
		t.Errorf("ExactMatches: got %d, want 1", snap.ExactMatches)
	}
	if snap.Misses != 1 {
		t.Errorf("Misses: got %d, want 1", snap.Misses)
	}
	if snap.Observations != 3 {
		t.Errorf("Observations: got %d, want 3", snap.Observations)
	}
	if snap.FuzzyMatches != 0 || snap.Promotions != 0 || snap.Violations != 0 {
		t.Error("untouched counters must read zero")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := metrics.NewMetrics()
	const goroutines = 1000
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			m.SessionsAnalyzed.Add(1)
			m.ExactMatches.Add(1)
		}()
	}
	wg.Wait()

	snap := m.Read()
	if snap.SessionsAnalyzed != goroutines {
		t.Errorf("SessionsAnalyzed: got %d, want %d", snap.SessionsAnalyzed, goroutines)
	}
	if snap.ExactMatches != goroutines {
		t.Errorf("ExactMatches: got %d, want %d", snap.ExactMatches, goroutines)
	}
}

func TestSessionsPerSecond_NonNegative(t *testing.T) {
	m := metrics.NewMetrics()
	m.SessionsAnalyzed.Add(10)
	if rate := m.SessionsPerSecond(); rate < 0 {
		t.Errorf("rate must not be negative, got %v", rate)
	}
}
