package engine

import "log/slog"

// SearchStrategy names the search algorithm. Backtracking is the only
// defined value today; the type exists so a future strategy can be added
// without breaking the SolverOptions shape.
type SearchStrategy string

const BacktrackingStrategy SearchStrategy = "backtracking"

// LogLevel gates how much the solver logs about its own progress.
type LogLevel string

const (
	LogNone     LogLevel = "none"
	LogBasic    LogLevel = "basic"
	LogDetailed LogLevel = "detailed"
)

// SolverOptions controls every tunable knob of a single Solve call. The
// zero value is not meaningful — callers should start from DefaultOptions.
type SolverOptions struct {
	// MaxTimeMs is the wall-clock budget for the whole solve.
	MaxTimeMs int64

	// MaxBacktracks caps the number of search-node backtracks.
	MaxBacktracks int

	// UseConstraintPropagation enables forward-checking after each
	// assignment. When false, each assignment is still checked against the
	// hard constraints, but other students' domains are not pruned.
	UseConstraintPropagation bool

	// UseHeuristics enables MRV/LCV scored ordering. When false, both
	// variable and value ordering fall back to static insertion order,
	// which is what fixture-verified, deterministic tests want.
	UseHeuristics bool

	// SearchStrategy selects the search algorithm.
	SearchStrategy SearchStrategy

	// EnableOptimizations runs the local-move improvement pass after a
	// (possibly partial) solution is found.
	EnableOptimizations bool

	// OptimizeForQuality shrinks the candidate start grid for a finer,
	// more expensive enumeration.
	OptimizeForQuality bool

	// PartialSolutionsAllowed, when false, makes an empty domain on any
	// student abort the whole solve with an UnschedulableError before
	// search; the accompanying solution has no assignments and lists every
	// student in Unscheduled.
	PartialSolutionsAllowed bool

	// LogLevel gates solver logging volume.
	LogLevel LogLevel

	// RandomSeed seeds heuristic tie-breaking for reproducibility.
	RandomSeed int64

	// CandidateGridMinutes is the step size used to enumerate candidate
	// start times within an overlap block (spec §9 open question; this
	// engine standardizes on one configurable grid rather than mixing a
	// 15/30-minute grid behind option flags the way the source did).
	CandidateGridMinutes int

	// Logger receives structured log events at LogLevel's granularity.
	// Defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// DefaultOptions returns the spec's documented defaults.
func DefaultOptions() SolverOptions {
	return SolverOptions{
		MaxTimeMs:                10_000,
		MaxBacktracks:            1_000,
		UseConstraintPropagation: true,
		UseHeuristics:            true,
		SearchStrategy:           BacktrackingStrategy,
		EnableOptimizations:      false,
		OptimizeForQuality:       false,
		PartialSolutionsAllowed:  true,
		LogLevel:                 LogNone,
		CandidateGridMinutes:     15,
	}
}

// logger returns the configured logger, falling back to slog.Default().
func (o SolverOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// grid returns the candidate grid size, defaulting to 15 minutes and
// honoring OptimizeForQuality's finer-step request.
func (o SolverOptions) grid() int {
	g := o.CandidateGridMinutes
	if g <= 0 {
		g = 15
	}
	if o.OptimizeForQuality && g > 5 {
		g = 5
	}
	return g
}
