package baseline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/perfgate/perfgate/internal/statblock"
)

// Error kinds reported by the tracker. All returned errors wrap one of
// these sentinels; match with errors.Is.
var (
	// ErrInvalidInput reports a sample that is not a usable stat mapping.
	ErrInvalidInput = errors.New("sample is not a stat mapping")

	// ErrMissingField reports a configured metric absent from a sample
	// during accumulation.
	ErrMissingField = errors.New("required metric missing from sample")

	// ErrBaselineAlg reports that a metric's history is too short for the
	// configured algorithm (max needs 1 sample, mean needs 2).
	ErrBaselineAlg = errors.New("insufficient history for baseline algorithm")
)

// Sample is one observed run: metric key → measured value.
type Sample map[string]float64

// Algorithm selects how a metric's baseline value is derived from its
// accumulated history.
type Algorithm int

const (
	// AlgMax takes the maximum of the history. The default.
	AlgMax Algorithm = iota

	// AlgMean takes the arithmetic mean plus two sample standard deviations.
	AlgMean
)

// String returns the config-file name of the algorithm.
func (a Algorithm) String() string {
	if a == AlgMean {
		return "mean"
	}
	return "max"
}

// ParseAlgorithm maps a config-file algorithm name to its Algorithm value.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "max":
		return AlgMax, nil
	case "mean":
		return AlgMean, nil
	default:
		return AlgMax, fmt.Errorf("baseline: unknown algorithm %q", s)
	}
}

// DefaultRebaseThreshold is the tolerance band around a multiplier within
// which a near-miss suggests recalibrating the baseline.
const DefaultRebaseThreshold = 0.05

// DefaultMultipliers returns a fresh copy of the built-in multiplier set.
// An alarm fires when [new value] / [baseline value] > multiplier.
// Fields we don't gate on (total_sec, the cpu_percent pair) are omitted.
func DefaultMultipliers() map[string]float64 {
	return map[string]float64{
		"cpu_sec":           2.0,
		"avg_rss_size_kib":  2.0,
		"peak_rss_size_kib": 3.0,
	}
}

// fieldDesc holds the human-readable label for each stat field emitted by
// the procmon collector. Used only when formatting violation messages.
var fieldDesc = map[string]string{
	"cpu_sec":           "Total CPU time (sec)",
	"total_sec":         "Total exec time (sec)",
	"avg_cpu_percent":   "Average CPU usage (percent)",
	"peak_cpu_percent":  "Peak CPU usage (percent)",
	"avg_rss_size_kib":  "Average RAM usage (KiB)",
	"peak_rss_size_kib": "Peak RAM usage (KiB)",
}

// fieldLabel returns the display label for a metric key. Keys without a
// built-in description fall back to the key itself so a misconfigured
// multiplier degrades the message, not the run.
func fieldLabel(key string) string {
	if d, ok := fieldDesc[key]; ok {
		return d
	}
	return key
}

// Options configures a Tracker. The zero value selects the default
// multiplier set, the max algorithm, and DefaultRebaseThreshold.
type Options struct {
	// Multipliers maps metric key → allowed ratio of new value to baseline
	// value. Its key set fixes which metrics the tracker observes; all
	// other sample keys are ignored everywhere. Nil selects a fresh copy
	// of DefaultMultipliers().
	Multipliers map[string]float64

	// Algorithm selects max or mean+2·stddev baselining.
	Algorithm Algorithm

	// RebaseThreshold is the |ratio − multiplier| band that counts as a
	// rebase suggestion. Zero selects DefaultRebaseThreshold.
	RebaseThreshold float64
}

// Tracker accumulates reference-run samples, freezes per-metric baseline
// values, and tests new measurements against them.
//
// Tracker provides no internal locking: run at most one
// Accumulate/Finalize sequence at a time. Concurrent Test calls on an
// already-finalized tracker are safe, since Test only reads.
type Tracker struct {
	multipliers     map[string]float64
	keys            []string // sorted key set of multipliers
	alg             Algorithm
	rebaseThreshold float64

	history  map[string][]float64
	baseline map[string]float64
	ready    bool
}

// New creates a Tracker from opts. The multiplier mapping is deep-copied;
// later caller mutation has no effect on the tracker.
func New(opts Options) *Tracker {
	src := opts.Multipliers
	if src == nil {
		src = DefaultMultipliers()
	}
	mult := make(map[string]float64, len(src))
	keys := make([]string, 0, len(src))
	hist := make(map[string][]float64, len(src))
	for k, v := range src {
		mult[k] = v
		keys = append(keys, k)
		hist[k] = nil
	}
	sort.Strings(keys)

	threshold := opts.RebaseThreshold
	if threshold == 0 {
		threshold = DefaultRebaseThreshold
	}

	return &Tracker{
		multipliers:     mult,
		keys:            keys,
		alg:             opts.Algorithm,
		rebaseThreshold: threshold,
		history:         hist,
		baseline:        make(map[string]float64, len(src)),
	}
}

// Multipliers returns a copy of the configured multiplier mapping.
func (t *Tracker) Multipliers() map[string]float64 {
	out := make(map[string]float64, len(t.multipliers))
	for k, v := range t.multipliers {
		out[k] = v
	}
	return out
}

// Ready reports whether Finalize has completed at least once. Test against
// an unready tracker skips every metric and passes trivially; callers that
// want strictness must check Ready themselves.
func (t *Tracker) Ready() bool {
	return t.ready
}

// Accumulate appends one reference run's values to the baseline history.
// Every configured metric must be present in sample; if any is missing the
// call fails with ErrMissingField and appends nothing, keeping all
// histories aligned in length.
func (t *Tracker) Accumulate(sample Sample) error {
	if sample == nil {
		return fmt.Errorf("baseline: accumulate: %w", ErrInvalidInput)
	}
	for _, k := range t.keys {
		if _, ok := sample[k]; !ok {
			return fmt.Errorf("baseline: accumulate: %w: %q", ErrMissingField, k)
		}
	}
	for _, k := range t.keys {
		t.history[k] = append(t.history[k], sample[k])
	}
	return nil
}

// Finalize computes the baseline value for every configured metric from
// its accumulated history, then clears all histories and marks the tracker
// ready. Calling it again recomputes from whatever accumulated since —
// with nothing accumulated that is an empty history, which fails with
// ErrBaselineAlg rather than silently keeping stale values.
func (t *Tracker) Finalize() error {
	// Validate every history up front so a failure leaves the tracker
	// untouched — baseline values are only ever overwritten wholesale.
	for _, k := range t.keys {
		n := len(t.history[k])
		switch t.alg {
		case AlgMax:
			if n == 0 {
				return fmt.Errorf("baseline: finalize: %w: no samples for %q", ErrBaselineAlg, k)
			}
		case AlgMean:
			if n < 2 {
				return fmt.Errorf("baseline: finalize: %w: need 2+ samples for %q, have %d", ErrBaselineAlg, k, n)
			}
		}
	}

	for _, k := range t.keys {
		h := t.history[k]
		switch t.alg {
		case AlgMax:
			t.baseline[k] = maxOf(h)
		case AlgMean:
			m := mean(h)
			t.baseline[k] = m + 2*stddev(h, m)
		}
	}
	for k := range t.history {
		t.history[k] = nil
	}
	t.ready = true
	return nil
}

// Result is the outcome of testing one measurement against the baseline.
type Result struct {
	// Pass is true iff Violations is empty.
	Pass bool

	// Violations holds one human-readable message per metric whose ratio
	// to baseline exceeded its multiplier, ordered by metric key.
	Violations []string

	// SuggestRebase counts metrics whose ratio landed within the rebase
	// threshold of their multiplier — near-misses that hint the baseline
	// or multiplier wants recalibrating. A metric can both violate and
	// suggest a rebase.
	SuggestRebase int
}

// Test compares a new measurement against the frozen baseline. Metrics
// absent from either the sample or the baseline mapping are skipped
// silently — no error, no violation. In particular an unready tracker
// skips everything and passes trivially.
func (t *Tracker) Test(sample Sample) Result {
	res := Result{}
	for _, k := range t.keys {
		v, okSample := sample[k]
		base, okBase := t.baseline[k]
		if !okSample || !okBase {
			continue
		}
		ratio := v / base
		if ratio > t.multipliers[k] {
			res.Violations = append(res.Violations,
				fmt.Sprintf("%s is %.3f%% of baseline", fieldLabel(k), ratio*100))
		}
		if math.Abs(ratio-t.multipliers[k]) <= t.rebaseThreshold {
			res.SuggestRebase++
		}
	}
	res.Pass = len(res.Violations) == 0
	return res
}

// TestOutput extracts the stat block from raw collector stdout and tests
// the parsed sample. Extraction failures are returned as-is.
func (t *Tracker) TestOutput(stdout string) (Result, error) {
	sample, err := statblock.Extract(stdout)
	if err != nil {
		return Result{}, err
	}
	return t.Test(sample), nil
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev returns the sample (n−1) standard deviation.
func stddev(vals []float64, mean float64) float64 {
	var sum float64
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}
