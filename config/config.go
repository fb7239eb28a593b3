// Package config provides configuration management for the fingerprint
// engine.  It supports JSON-based configuration loading with safe defaults
// tuned for steady detection workloads.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds all tunable parameters for the analyzer, database matcher,
// and observer.  The struct is designed to be loaded once at startup and
// then shared across goroutines as a read-only value, making it inherently
// thread-safe after initialization.
type Config struct {
	// FuzzyMatchThreshold is the minimum similarity the database matcher
	// accepts for a fuzzy candidate.  Below this floor false positives
	// dominate.  Distinct from StabilityThreshold; the two must never be
	// collapsed into one knob.
	FuzzyMatchThreshold float64 `json:"fuzzy_match_threshold"`

	// StabilityThreshold is the observer's promotion threshold on the
	// stability score.
	StabilityThreshold float64 `json:"stability_threshold"`

	// MinObservationCount is the minimum recurrence count before an unknown
	// fingerprint can be promoted.
	MinObservationCount uint64 `json:"min_observation_count"`

	// ObserverCapacity bounds the number of unknown fingerprints tracked
	// concurrently.  The least-recently-updated record is evicted beyond
	// this.
	ObserverCapacity int `json:"observer_capacity"`

	// RetentionWindow ages out observations whose last sighting is older
	// than this.  In JSON it is a plain time.Duration: an integer count of
	// nanoseconds (e.g. 86400000000000 for 24h); strings such as "24h" do
	// not decode.
	RetentionWindow time.Duration `json:"retention_window"`

	// SweepInterval is how often the background sweeper applies the
	// retention window.
	SweepInterval time.Duration `json:"sweep_interval"`

	// LearnedConfidenceCeiling caps the confidence of database entries
	// created by promotion, keeping self-learned identifications below
	// authoritative ones.
	LearnedConfidenceCeiling float64 `json:"learned_confidence_ceiling"`

	// SessionLogSize bounds the forensic log of recently analyzed sessions.
	// Zero disables the log.
	SessionLogSize int `json:"session_log_size"`

	// AnalyzerWorkers is the goroutine pool size for batch analysis.
	AnalyzerWorkers int `json:"analyzer_workers"`

	// LogLevel selects logger verbosity: "debug", "info", or "error".
	LogLevel string `json:"log_level"`
}

// LoadConfig reads a JSON file at filename and deserialises it into a
// Config.  It returns an error if the file cannot be opened or if the JSON
// is malformed.  Zero-value fields retain Go's zero values, so callers
// should Validate after loading.
func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename) // #nosec G304 – filename is caller-provided config path
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", filename, err)
	}
	defer f.Close()

	var cfg Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields() // catch typos in config files early
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %q: %w", filename, err)
	}
	return &cfg, nil
}

// DefaultConfig returns a *Config pre-filled with production-sensible
// defaults.  Callers are free to mutate the returned struct before passing
// it to other components; each call returns a fresh independent copy.
func DefaultConfig() *Config {
	return &Config{
		FuzzyMatchThreshold:      0.80,
		StabilityThreshold:       0.70,
		MinObservationCount:      10,
		ObserverCapacity:         10_000,
		RetentionWindow:          24 * time.Hour,
		SweepInterval:            10 * time.Minute,
		LearnedConfidenceCeiling: 0.75,
		SessionLogSize:           1_000,
		AnalyzerWorkers:          8,
		LogLevel:                 "info",
	}
}

// Validate checks the configuration for values that would misbehave at
// runtime and returns the first problem found.
func (c *Config) Validate() error {
	if c.FuzzyMatchThreshold <= 0 || c.FuzzyMatchThreshold > 1 {
		return fmt.Errorf("config: fuzzy_match_threshold %v outside (0, 1]", c.FuzzyMatchThreshold)
	}
	if c.StabilityThreshold <= 0 || c.StabilityThreshold > 1 {
		return fmt.Errorf("config: stability_threshold %v outside (0, 1]", c.StabilityThreshold)
	}
	if c.MinObservationCount == 0 {
		return fmt.Errorf("config: min_observation_count must be positive")
	}
	if c.ObserverCapacity <= 0 {
		return fmt.Errorf("config: observer_capacity must be positive")
	}
	if c.RetentionWindow <= 0 {
		return fmt.Errorf("config: retention_window must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("config: sweep_interval must be positive")
	}
	if c.LearnedConfidenceCeiling <= 0 || c.LearnedConfidenceCeiling > 1 {
		return fmt.Errorf("config: learned_confidence_ceiling %v outside (0, 1]", c.LearnedConfidenceCeiling)
	}
	if c.SessionLogSize < 0 {
		return fmt.Errorf("config: session_log_size must not be negative")
	}
	if c.AnalyzerWorkers <= 0 {
		return fmt.Errorf("config: analyzer_workers must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		return fmt.Errorf("config: log_level %q is not debug/info/error", c.LogLevel)
	}
	return nil
}
