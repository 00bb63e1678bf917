// Package telemetry carries the solver's ambient logging, stage timing,
// and metrics emission, adapted from Orbita's pkg/observability package
// to a single re-entrant solve call instead of a long-lived service.
package telemetry

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StageTimer accumulates named stage durations across one Solve call, the
// way observability.Timer accumulates one operation's duration — except a
// solve has several named stages (domain construction, search, optimize)
// that all need reporting in SolutionMetadata.StageTimingsMs.
type StageTimer struct {
	logger *slog.Logger
	level  string
	started map[string]time.Time
	elapsed map[string]time.Duration
}

// NewStageTimer returns a timer that logs at level (none/basic/detailed)
// using logger, defaulting to slog.Default() when logger is nil.
func NewStageTimer(logger *slog.Logger, level string) *StageTimer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StageTimer{
		logger:  logger,
		level:   level,
		started: make(map[string]time.Time),
		elapsed: make(map[string]time.Duration),
	}
}

// Start marks the beginning of a named stage.
func (t *StageTimer) Start(stage string) {
	t.started[stage] = time.Now()
	if t.level == "detailed" {
		t.logger.Debug("stage started", "stage", stage)
	}
}

// Stop records the stage's elapsed duration and logs it per level.
func (t *StageTimer) Stop(stage string) time.Duration {
	d := time.Since(t.started[stage])
	t.elapsed[stage] = d
	if t.level == "basic" || t.level == "detailed" {
		t.logger.Info("stage completed", "stage", stage, "duration_ms", d.Milliseconds())
	}
	return d
}

// Snapshot returns every recorded stage's duration in milliseconds, for
// SolutionMetadata.StageTimingsMs.
func (t *StageTimer) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(t.elapsed))
	for stage, d := range t.elapsed {
		out[stage] = d.Milliseconds()
	}
	return out
}

// Recorder is the solver's metrics boundary: counters and histograms
// keyed by outcome, so a host process can wire in whatever backend it
// wants (or nothing at all) without the engine depending on one.
type Recorder interface {
	ObserveSolve(scheduled, total int, duration time.Duration, exhaustionCause string)
	ObserveBacktracks(count int)
}

// NoopRecorder discards every observation. It is the solver's default so
// the engine never requires a metrics backend to run.
type NoopRecorder struct{}

func (NoopRecorder) ObserveSolve(scheduled, total int, duration time.Duration, exhaustionCause string) {
}
func (NoopRecorder) ObserveBacktracks(count int) {}

// PrometheusRecorder implements Recorder against client_golang, grounded
// on Orbita's pkg/observability metrics wiring pattern but backed by the
// real Prometheus client library instead of an in-house interface.
type PrometheusRecorder struct {
	solvesTotal        *prometheus.CounterVec
	scheduledRatio     prometheus.Histogram
	solveDuration      *prometheus.HistogramVec
	backtrackCount     prometheus.Histogram
}

// NewPrometheusRecorder registers the scheduler's metrics against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the default
// global registry.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		solvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessonsched",
			Name:      "solves_total",
			Help:      "Total number of Solve calls, labeled by exhaustion cause.",
		}, []string{"exhaustion_cause"}),
		scheduledRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lessonsched",
			Name:      "scheduled_ratio",
			Help:      "scheduledStudents / totalStudents per solve.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lessonsched",
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock duration of a Solve call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"exhaustion_cause"}),
		backtrackCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lessonsched",
			Name:      "backtracks",
			Help:      "Backtrack count per Solve call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(r.solvesTotal, r.scheduledRatio, r.solveDuration, r.backtrackCount)
	return r
}

func (r *PrometheusRecorder) ObserveSolve(scheduled, total int, duration time.Duration, exhaustionCause string) {
	if exhaustionCause == "" {
		exhaustionCause = "none"
	}
	r.solvesTotal.WithLabelValues(exhaustionCause).Inc()
	r.solveDuration.WithLabelValues(exhaustionCause).Observe(duration.Seconds())
	if total > 0 {
		r.scheduledRatio.Observe(float64(scheduled) / float64(total))
	}
}

func (r *PrometheusRecorder) ObserveBacktracks(count int) {
	r.backtrackCount.Observe(float64(count))
}
