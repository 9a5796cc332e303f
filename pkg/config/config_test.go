package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate, got: %v", err)
	}
}

func TestPresets(t *testing.T) {
	names := []string{"default", "exposed-ridge", "sheltered"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg, err := Preset(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset must validate, got: %v", err)
			}
		})
	}

	exposed, _ := Preset("exposed-ridge")
	sheltered, _ := Preset("sheltered")
	if exposed.Snowdrift.WindHigh >= Default().Snowdrift.WindHigh {
		t.Error("exposed-ridge should lower the high wind threshold")
	}
	if sheltered.Snowdrift.WindHigh <= Default().Snowdrift.WindHigh {
		t.Error("sheltered should raise the high wind threshold")
	}

	if _, err := Preset("alpine"); err == nil {
		t.Error("expected error for unknown preset name")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"medium wind above high", func(c *Config) { c.Snowdrift.WindMedium = c.Snowdrift.WindHigh + 1 }},
		{"medium rain floor above high floor", func(c *Config) { c.Slippery.RainPrecipFloorMedium = c.Slippery.RainPrecipFloor + 1 }},
		{"zero min duration", func(c *Config) { c.Episode.MinDurationSteps = 0 }},
		{"negative gap tolerance", func(c *Config) { c.Episode.GapToleranceHours = -1 }},
		{"zero rationale cap", func(c *Config) { c.Episode.MaxRationale = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestGapTolerance(t *testing.T) {
	p := EpisodeParams{GapToleranceHours: 2.5}
	if got, want := p.GapTolerance(), 150*time.Minute; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLoadFilePartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.yaml")
	body := `
snowdrift:
  wind-high: 10.5
episode:
  gap-tolerance-hours: 6
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Snowdrift.WindHigh != 10.5 {
		t.Errorf("expected overridden wind-high 10.5, got %.1f", cfg.Snowdrift.WindHigh)
	}
	if cfg.Episode.GapToleranceHours != 6 {
		t.Errorf("expected overridden gap tolerance 6, got %.1f", cfg.Episode.GapToleranceHours)
	}

	// Untouched keys keep their defaults.
	def := Default()
	if cfg.Snowdrift.WindMedium != def.Snowdrift.WindMedium {
		t.Errorf("wind-medium should keep its default, got %.1f", cfg.Snowdrift.WindMedium)
	}
	if cfg.Slippery != def.Slippery {
		t.Errorf("slippery block should keep its defaults, got %+v", cfg.Slippery)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	body := `
snowdrift:
  wind-medium: 12.0
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected validation error for wind-medium above wind-high")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
