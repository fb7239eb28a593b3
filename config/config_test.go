package config_test

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/firasghr/GoFingerprintEngine/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
	if cfg.FuzzyMatchThreshold != 0.80 {
		t.Errorf("FuzzyMatchThreshold: got %v, want 0.80", cfg.FuzzyMatchThreshold)
	}
	if cfg.StabilityThreshold != 0.70 {
		t.Errorf("StabilityThreshold: got %v, want 0.70", cfg.StabilityThreshold)
	}
	if cfg.FuzzyMatchThreshold == cfg.StabilityThreshold {
		t.Error("matcher and promotion thresholds are distinct knobs and must not collapse")
	}
	if cfg.ObserverCapacity <= 0 {
		t.Errorf("ObserverCapacity should be > 0, got %d", cfg.ObserverCapacity)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	raw := `{
		"fuzzy_match_threshold": 0.85,
		"stability_threshold": 0.7,
		"min_observation_count": 5,
		"observer_capacity": 100,
		"retention_window": ` + itoa(int64(12*time.Hour)) + `,
		"sweep_interval": ` + itoa(int64(time.Minute)) + `,
		"learned_confidence_ceiling": 0.6,
		"session_log_size": 50,
		"analyzer_workers": 4,
		"log_level": "debug"
	}`
	f, err := os.CreateTemp(t.TempDir(), "config*.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(raw); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FuzzyMatchThreshold != 0.85 {
		t.Errorf("got FuzzyMatchThreshold=%v, want 0.85", cfg.FuzzyMatchThreshold)
	}
	if cfg.RetentionWindow != 12*time.Hour {
		t.Errorf("got RetentionWindow=%v, want 12h", cfg.RetentionWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config must validate: %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig("/nonexistent/path/config.json")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "bad*.json")
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not valid json}")
	f.Close()

	_, err = config.LoadConfig(f.Name())
	if err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "typo*.json")
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(`{"fuzzy_match_treshold": 0.8}`)
	f.Close()

	_, err = config.LoadConfig(f.Name())
	if err == nil {
		t.Error("expected error for unknown field, got nil")
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	mutations := []func(*config.Config){
		func(c *config.Config) { c.FuzzyMatchThreshold = 0 },
		func(c *config.Config) { c.FuzzyMatchThreshold = 1.5 },
		func(c *config.Config) { c.StabilityThreshold = -0.1 },
		func(c *config.Config) { c.MinObservationCount = 0 },
		func(c *config.Config) { c.ObserverCapacity = 0 },
		func(c *config.Config) { c.RetentionWindow = 0 },
		func(c *config.Config) { c.SweepInterval = -time.Second },
		func(c *config.Config) { c.LearnedConfidenceCeiling = 2 },
		func(c *config.Config) { c.SessionLogSize = -1 },
		func(c *config.Config) { c.AnalyzerWorkers = 0 },
		func(c *config.Config) { c.LogLevel = "verbose" },
	}
	for i, mutate := range mutations {
		cfg := config.DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("mutation %d: expected a validation error", i)
		}
	}
}

// itoa renders a duration's nanosecond count for embedding in raw JSON.
func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
