package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/perfgate/perfgate/internal/baseline"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
multipliers:
  cpu_sec: 2.0
  peak_rss_size_kib: 3.0
algorithm: mean
rebase_threshold: 0.1
baseline_runs:
  - runs/ref-1.out
  - runs/ref-2.out
input_format: statblock
`
	cfg := loadFromString(t, yaml)

	if cfg.Algorithm != "mean" {
		t.Errorf("algorithm: got %q", cfg.Algorithm)
	}
	if cfg.RebaseThreshold != 0.1 {
		t.Errorf("rebase_threshold: got %v", cfg.RebaseThreshold)
	}
	if got := cfg.Multipliers["peak_rss_size_kib"]; got != 3.0 {
		t.Errorf("multipliers[peak_rss_size_kib]: got %v", got)
	}
	if len(cfg.BaselineRuns) != 2 {
		t.Errorf("baseline_runs: got %d, want 2", len(cfg.BaselineRuns))
	}
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
baseline_runs:
  - runs/ref-1.out
`
	cfg := loadFromString(t, yaml)

	if cfg.Algorithm != "max" {
		t.Errorf("default algorithm: got %q, want max", cfg.Algorithm)
	}
	if cfg.RebaseThreshold != baseline.DefaultRebaseThreshold {
		t.Errorf("default rebase_threshold: got %v, want %v", cfg.RebaseThreshold, baseline.DefaultRebaseThreshold)
	}
	if cfg.InputFormat != FormatStatBlock {
		t.Errorf("default input_format: got %q, want %q", cfg.InputFormat, FormatStatBlock)
	}
	if cfg.Multipliers != nil {
		t.Errorf("multipliers: got %v, want nil (tracker applies the built-in set)", cfg.Multipliers)
	}
}

func TestLoad_UnknownAlgorithm(t *testing.T) {
	yaml := `
algorithm: median
baseline_runs: [runs/ref-1.out]
`
	if _, err := loadStringErr(t, yaml); err == nil {
		t.Fatal("expected error for unknown algorithm, got nil")
	}
}

func TestLoad_NonPositiveMultiplier(t *testing.T) {
	yaml := `
multipliers:
  cpu_sec: 0
baseline_runs: [runs/ref-1.out]
`
	if _, err := loadStringErr(t, yaml); err == nil {
		t.Fatal("expected error for non-positive multiplier, got nil")
	}
}

func TestLoad_NoBaselineRuns(t *testing.T) {
	if _, err := loadStringErr(t, `algorithm: max`); err == nil {
		t.Fatal("expected error for missing baseline_runs, got nil")
	}
}

func TestLoad_MeanNeedsTwoRuns(t *testing.T) {
	yaml := `
algorithm: mean
baseline_runs: [runs/ref-1.out]
`
	if _, err := loadStringErr(t, yaml); err == nil {
		t.Fatal("expected error for mean with one run, got nil")
	}
}

func TestLoad_UnknownInputFormat(t *testing.T) {
	yaml := `
baseline_runs: [runs/ref-1.out]
input_format: csv
`
	if _, err := loadStringErr(t, yaml); err == nil {
		t.Fatal("expected error for unknown input format, got nil")
	}
}

func TestTrackerOptions(t *testing.T) {
	yaml := `
multipliers:
  cpu_sec: 2.5
algorithm: mean
rebase_threshold: 0.2
baseline_runs: [a.out, b.out]
`
	cfg := loadFromString(t, yaml)
	opts := cfg.TrackerOptions()

	if opts.Algorithm != baseline.AlgMean {
		t.Errorf("Algorithm: got %v, want AlgMean", opts.Algorithm)
	}
	if opts.RebaseThreshold != 0.2 {
		t.Errorf("RebaseThreshold: got %v", opts.RebaseThreshold)
	}
	if got := opts.Multipliers["cpu_sec"]; got != 2.5 {
		t.Errorf("Multipliers[cpu_sec]: got %v", got)
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perfgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
