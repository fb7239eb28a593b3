package analyzer

import (
	"github.com/firasghr/GoFingerprintEngine/worker"
)

// SessionResult pairs one batch input with its report or input error.
type SessionResult struct {
	Input  *SessionInput
	Report *SessionReport
	Err    error
}

// AnalyzeSessions analyzes a batch of sessions through a bounded worker
// pool and returns results in input order.
//
// The pool is created per call: batch analysis is a replay/import workload,
// not the steady-state path, and a short-lived pool keeps the analyzer free
// of background goroutines between calls.  Pool size comes from the
// configuration's AnalyzerWorkers.
func (a *Analyzer) AnalyzeSessions(inputs []*SessionInput) []SessionResult {
	results := make([]SessionResult, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	pool := worker.New(a.cfg.AnalyzerWorkers)
	for i, in := range inputs {
		i, in := i, in
		pool.Submit(func() {
			report, err := a.AnalyzeSession(in)
			results[i] = SessionResult{Input: in, Report: report, Err: err}
		})
	}
	pool.Wait()

	return results
}
