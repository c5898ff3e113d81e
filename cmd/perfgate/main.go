// perfgate gates CI test runs on performance regressions. It accumulates a
// baseline from reference-run captures, then tests a new measurement
// capture against per-metric multiplier thresholds.
//
// Exit codes: 0 gate passed, 1 regression detected, 2 operational error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/perfgate/perfgate/internal/baseline"
	"github.com/perfgate/perfgate/internal/config"
	"github.com/perfgate/perfgate/internal/promstat"
	"github.com/perfgate/perfgate/internal/statblock"
)

func main() {
	configPath := flag.String("config", "perfgate.yaml", "path to gate config file")
	inputPath := flag.String("input", "-", "measurement capture to test ('-' reads stdin)")
	watch := flag.Bool("watch", false, "keep running and re-test the input file on every write")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(2)
	}
	slog.Info("config loaded",
		"algorithm", cfg.Algorithm,
		"baseline_runs", len(cfg.BaselineRuns),
		"input_format", cfg.InputFormat,
	)

	tracker, err := buildTracker(cfg)
	if err != nil {
		slog.Error("failed to build baseline", "err", err)
		os.Exit(2)
	}
	slog.Info("baseline ready", "multipliers", tracker.Multipliers())

	if !*watch {
		res, err := testCapture(tracker, cfg, *inputPath)
		if err != nil {
			slog.Error("gate did not run", "input", *inputPath, "err", err)
			os.Exit(2)
		}
		report(res)
		if !res.Pass {
			os.Exit(1)
		}
		return
	}

	if *inputPath == "-" {
		slog.Error("watch mode needs a file input, not stdin")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g := &gate{cfg: cfg, tracker: tracker, input: *inputPath}

	// Hot-reload the gate config: a successful reload rebuilds the tracker
	// and re-accumulates the baseline; a failed reload keeps the old gate.
	go func() {
		err := config.Watch(ctx, *configPath,
			func(updated *config.Config) { g.swap(updated) },
			func(err error) { slog.Error("config reload failed — keeping previous gate", "err", err) },
		)
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	slog.Info("watching measurement file", "path", *inputPath)
	if err := watchInput(ctx, *inputPath, g.run); err != nil {
		slog.Error("input watcher stopped", "err", err)
		os.Exit(2)
	}
	slog.Info("perfgate shutting down")
}

// gate bundles the config, the finalized tracker, and the input path so
// watch mode can swap the whole unit under one lock.
type gate struct {
	mu      sync.Mutex
	cfg     *config.Config
	tracker *baseline.Tracker
	input   string
}

// swap rebuilds the tracker from an updated config. On failure the
// previous gate stays active.
func (g *gate) swap(cfg *config.Config) {
	tracker, err := buildTracker(cfg)
	if err != nil {
		slog.Error("rebaseline after reload failed — keeping previous gate", "err", err)
		return
	}
	g.mu.Lock()
	g.cfg = cfg
	g.tracker = tracker
	g.mu.Unlock()
	slog.Info("config reloaded, baseline rebuilt", "algorithm", cfg.Algorithm)
}

// run tests the current contents of the input file against the gate.
func (g *gate) run() {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, err := testCapture(g.tracker, g.cfg, g.input)
	if err != nil {
		slog.Error("gate did not run", "input", g.input, "err", err)
		return
	}
	report(res)
}

// buildTracker accumulates every configured reference run and finalizes
// the baseline.
func buildTracker(cfg *config.Config) (*baseline.Tracker, error) {
	tracker := baseline.New(cfg.TrackerOptions())
	for _, run := range cfg.BaselineRuns {
		sample, err := readSample(cfg, run)
		if err != nil {
			return nil, fmt.Errorf("baseline run %q: %w", run, err)
		}
		if err := tracker.Accumulate(sample); err != nil {
			return nil, fmt.Errorf("baseline run %q: %w", run, err)
		}
	}
	if err := tracker.Finalize(); err != nil {
		return nil, err
	}
	return tracker, nil
}

// testCapture parses one measurement capture and tests it.
func testCapture(tracker *baseline.Tracker, cfg *config.Config, path string) (baseline.Result, error) {
	sample, err := readSample(cfg, path)
	if err != nil {
		return baseline.Result{}, err
	}
	return tracker.Test(sample), nil
}

// readSample parses a capture file (or stdin for "-") in the configured
// format into a stat sample.
func readSample(cfg *config.Config, path string) (baseline.Sample, error) {
	if path == "-" {
		if cfg.InputFormat == config.FormatPrometheus {
			return promstat.Parse(os.Stdin)
		}
		return statblock.ExtractLines(os.Stdin)
	}

	if cfg.InputFormat == config.FormatPrometheus {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return promstat.Parse(f)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return statblock.Extract(string(data))
}

// report logs the gate outcome: one warning per violation, a rebase hint
// when near-misses accumulated, and the final verdict.
func report(res baseline.Result) {
	for _, v := range res.Violations {
		slog.Warn("regression detected", "violation", v)
	}
	if res.SuggestRebase > 0 {
		slog.Info("metrics sit close to their threshold — consider rebaselining",
			"count", res.SuggestRebase)
	}
	slog.Info("gate result", "pass", res.Pass, "violations", len(res.Violations))
}

// watchInput re-runs the gate whenever the measurement file is written.
// It runs until ctx is cancelled.
func watchInput(ctx context.Context, path string, run func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			run()
			// Re-add in case the file was atomically replaced.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("input watcher error", "err", err)
		}
	}
}
