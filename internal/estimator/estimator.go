// Package estimator derives per-request completion timeouts from the
// observed durations of past requests.
//
// The estimate is mean + 2·stddev over recent successful requests, scaled by
// a complexity factor for the request at hand, and clamped to a configured
// [min, max] range. With fewer than three successful samples the estimator
// falls back to a fixed base timeout. History lives in a bounded ring and is
// never persisted.
package estimator

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	// DefaultHistorySize is the default metric ring capacity.
	DefaultHistorySize = 50

	// minSamples is the number of successful samples required before the
	// historical estimate is trusted over the base timeout.
	minSamples = 3
)

// Metric is one resolved request's timing record.
type Metric struct {
	Duration   time.Duration
	Complexity float64
	Succeeded  bool
	At         time.Time
}

// Profile describes the request being estimated. It feeds the complexity
// factor: longer context, more injected references, and manual triggers all
// buy a larger allowance.
type Profile struct {
	// ContextLen is the combined rune count of text before and after the cursor.
	ContextLen int
	// ReferenceEntries is the number of injected reference snippets.
	ReferenceEntries int
	// Manual is true for explicitly user-triggered requests.
	Manual bool
}

// Config holds estimator settings.
type Config struct {
	// Base is the fallback timeout used while history is too thin. Default: 15s.
	Base time.Duration
	// Min is the lower clamp for estimates. Default: 8s.
	Min time.Duration
	// Max is the upper clamp for estimates. Default: 30s.
	Max time.Duration
	// HistorySize is the metric ring capacity. Default: 50.
	HistorySize int
	// Logger for estimate decisions. Optional.
	Logger *slog.Logger
}

func (c Config) applyDefaults() Config {
	if c.Base <= 0 {
		c.Base = 15 * time.Second
	}
	if c.Min <= 0 {
		c.Min = 8 * time.Second
	}
	if c.Max <= 0 {
		c.Max = 30 * time.Second
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Estimator owns the metric history. It is safe for concurrent use.
type Estimator struct {
	mu      sync.Mutex
	cfg     Config
	history *ring
}

// New creates an Estimator. Zero-valued config fields get defaults.
func New(cfg Config) *Estimator {
	cfg = cfg.applyDefaults()
	return &Estimator{
		cfg:     cfg,
		history: newRing(cfg.HistorySize),
	}
}

// Estimate returns the timeout for a request with the given profile.
// The result is always within [Min, Max].
func (e *Estimator) Estimate(p Profile) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	historical := e.historicalLocked()
	factor := complexityFactor(p)
	estimate := time.Duration(float64(historical) * factor)
	clamped := clamp(estimate, e.cfg.Min, e.cfg.Max)

	e.cfg.Logger.Debug("timeout estimate",
		"historical_ms", historical.Milliseconds(),
		"complexity", factor,
		"result_ms", clamped.Milliseconds(),
		"samples", e.history.len(),
	)
	return clamped
}

// Record appends a resolved request's metric, evicting the oldest at
// capacity. Pure bookkeeping; never fails.
func (e *Estimator) Record(duration time.Duration, p Profile, succeeded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.push(Metric{
		Duration:   duration,
		Complexity: complexityFactor(p),
		Succeeded:  succeeded,
		At:         time.Now(),
	})
}

// SampleCount returns the number of metrics currently held.
func (e *Estimator) SampleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.len()
}

// historicalLocked computes mean + 2·stddev over successful durations, or
// the base timeout when fewer than minSamples successes exist.
func (e *Estimator) historicalLocked() time.Duration {
	var durations []float64
	for _, m := range e.history.values() {
		if m.Succeeded {
			durations = append(durations, float64(m.Duration))
		}
	}
	if len(durations) < minSamples {
		return e.cfg.Base
	}

	var sum float64
	for _, d := range durations {
		sum += d
	}
	mean := sum / float64(len(durations))

	var sq float64
	for _, d := range durations {
		sq += (d - mean) * (d - mean)
	}
	stddev := math.Sqrt(sq / float64(len(durations)))

	return time.Duration(mean + 2*stddev)
}

// complexityFactor maps a request profile to a multiplier >= 1.0.
func complexityFactor(p Profile) float64 {
	factor := 1.0
	// Longer context costs more; capped so pathological buffers don't
	// blow past the clamp on their own.
	factor += math.Min(float64(p.ContextLen)/4096.0, 0.5)
	factor += math.Min(float64(p.ReferenceEntries)*0.05, 0.25)
	if p.Manual {
		// The user is explicitly waiting; allow a little longer.
		factor += 0.2
	}
	return factor
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
