package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/perfgate/perfgate/internal/baseline"
)

// Input formats accepted for baseline runs and measurements.
const (
	// FormatStatBlock is procmon stdout with a token-delimited stat block.
	FormatStatBlock = "statblock"

	// FormatPrometheus is a Prometheus text exposition, e.g. a process
	// exporter dump captured at the end of a run.
	FormatPrometheus = "prometheus"
)

// Config is the gate configuration. Fields map 1:1 to perfgate.yaml.
type Config struct {
	// Multipliers maps metric key → allowed ratio of new value to
	// baseline value. Empty selects the built-in default set.
	Multipliers map[string]float64 `yaml:"multipliers"`

	// Algorithm selects baselining: max | mean.
	Algorithm string `yaml:"algorithm"`

	// RebaseThreshold is the near-miss band around each multiplier that
	// counts as a rebase suggestion.
	RebaseThreshold float64 `yaml:"rebase_threshold"`

	// BaselineRuns lists files holding reference-run output captures, one
	// run per file, accumulated in order.
	BaselineRuns []string `yaml:"baseline_runs"`

	// InputFormat is how run captures are parsed: statblock | prometheus.
	InputFormat string `yaml:"input_format"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Algorithm:       baseline.AlgMax.String(),
		RebaseThreshold: baseline.DefaultRebaseThreshold,
		InputFormat:     FormatStatBlock,
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	alg, err := baseline.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return fmt.Errorf("algorithm: must be max or mean, got %q", cfg.Algorithm)
	}
	if cfg.RebaseThreshold < 0 {
		return fmt.Errorf("rebase_threshold: must be non-negative, got %g", cfg.RebaseThreshold)
	}
	for k, m := range cfg.Multipliers {
		if m <= 0 {
			return fmt.Errorf("multipliers[%q]: must be positive, got %g", k, m)
		}
	}
	if len(cfg.BaselineRuns) == 0 {
		return fmt.Errorf("baseline_runs: at least one reference run is required")
	}
	if alg == baseline.AlgMean && len(cfg.BaselineRuns) < 2 {
		return fmt.Errorf("baseline_runs: the mean algorithm needs at least 2 reference runs")
	}
	switch cfg.InputFormat {
	case FormatStatBlock, FormatPrometheus:
	default:
		return fmt.Errorf("input_format: unknown format %q", cfg.InputFormat)
	}
	return nil
}

// TrackerOptions converts the validated config into tracker options.
func (c *Config) TrackerOptions() baseline.Options {
	alg, _ := baseline.ParseAlgorithm(c.Algorithm) // validated by Load
	return baseline.Options{
		Multipliers:     c.Multipliers,
		Algorithm:       alg,
		RebaseThreshold: c.RebaseThreshold,
	}
}
