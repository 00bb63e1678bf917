package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
)

// SearchResult is the best assignment set a search run found, along with
// the bookkeeping the caller needs to build SolutionMetadata.
type SearchResult struct {
	Assignments     []domain.Assignment
	Scheduled       map[string]bool
	BacktrackCount  int
	ExhaustionCause domain.ExhaustionCause
}

// searcher holds the budget and bookkeeping shared across one backtracking
// run. It is a throwaway value, scoped to a single Solve call.
type searcher struct {
	ctx      context.Context
	state    *State
	opts     SolverOptions
	rng      *rand.Rand
	deadline time.Time

	backtracks int
	best       SearchResult
	strict     bool
}

// Search runs the depth-first backtracking driver (spec §4.4/§4.5) over
// every student in order, using variable/value ordering from heuristics.go,
// and returns the best assignment set found within the time/backtrack
// budget. studentOrder is the static fallback order when heuristics are
// disabled and the initial unassigned list either way. ctx is polled at the
// same two points the time/backtrack budget is (spec §5): cancellation is
// cooperative, so the search returns the best partial solution found by the
// next poll rather than aborting immediately.
func Search(ctx context.Context, state *State, studentOrder []string, opts SolverOptions) SearchResult {
	s := &searcher{
		ctx:      ctx,
		state:    state,
		opts:     opts,
		rng:      rand.New(rand.NewSource(opts.RandomSeed)),
		deadline: time.Now().Add(time.Duration(opts.MaxTimeMs) * time.Millisecond),
		strict:   !opts.PartialSolutionsAllowed,
	}
	s.best = SearchResult{Scheduled: map[string]bool{}}

	unassigned := make([]string, len(studentOrder))
	copy(unassigned, studentOrder)

	s.recordIfBetter()
	s.step(unassigned, nil)

	if len(s.best.Assignments) == 0 {
		s.best.Assignments = []domain.Assignment{}
	}
	s.best.BacktrackCount = s.backtracks
	return s.best
}

// budgetExceeded polls the hard upper bounds the spec requires (§4.4
// termination guarantee: wall clock and backtrack count) plus ctx
// cancellation (§5): a cancelled context is checked at the same two poll
// points as the time/backtrack budget, so no new poll points are needed.
func (s *searcher) budgetExceeded() domain.ExhaustionCause {
	if s.ctx != nil && s.ctx.Err() != nil {
		return domain.ExhaustionCancelled
	}
	if s.opts.MaxBacktracks > 0 && s.backtracks >= s.opts.MaxBacktracks {
		return domain.ExhaustionBacktracks
	}
	if s.opts.MaxTimeMs > 0 && time.Now().After(s.deadline) {
		return domain.ExhaustionTime
	}
	return domain.ExhaustionNone
}

// step implements one search-tree node (spec §4.5's NEW→PROPAGATED→
// EXPANDING→CHILD→DONE state machine). It recurses once per student, so
// the recursion depth is bounded by the number of students; domain prunes
// are undone through the trail marker taken before each Assign. skipped
// carries students parked at an earlier node because their domain was
// empty in partial-solution mode.
func (s *searcher) step(unassigned []string, skipped []string) {
	if cause := s.budgetExceeded(); cause != domain.ExhaustionNone {
		s.best.ExhaustionCause = cause
		return
	}

	if len(unassigned) == 0 {
		s.recordIfBetter()
		return
	}

	studentID := SelectVariable(s.state, unassigned, s.opts.UseHeuristics)
	rest := removeOne(unassigned, studentID)

	// NEW: domain as of entry, already propagated by whichever Assign
	// call put us at this node (or empty, for the initial call).
	if s.state.RemainingCount(studentID) == 0 {
		if s.strict {
			// PROPAGATED -> DONE(failure): strict mode backtracks rather
			// than ever emitting a solution missing this student.
			return
		}
		// Partial mode: park studentID as skipped-at-this-node and keep
		// going; it becomes a candidate for Unscheduled.
		s.step(rest, append(skipped, studentID))
		return
	}

	// EXPANDING: iterate value-ordered candidates.
	for _, slot := range OrderValues(s.state, studentID, s.opts.UseHeuristics, s.rng) {
		if cause := s.budgetExceeded(); cause != domain.ExhaustionNone {
			s.best.ExhaustionCause = cause
			return
		}

		mark := s.state.Mark()
		ok, starved := s.state.Assign(slot, s.opts.UseConstraintPropagation)
		if !ok {
			continue
		}

		// PROPAGATED: in strict mode, propagation starving any unassigned
		// student is a hard CSP failure (spec §4.3: "the current branch
		// fails and backtracks") — fail fast rather than waiting for that
		// student's own turn. Partial mode tolerates it: the starved
		// student is simply parked (NEW, above) when its turn comes.
		if s.strict && len(starved) > 0 {
			s.state.Undo(mark)
			s.state.Unassign(slot)
			s.backtracks++
			continue
		}

		// CHILD: recurse holding the trail marker.
		s.step(rest, skipped)

		s.state.Undo(mark)
		s.state.Unassign(slot)
		s.backtracks++
	}
	// DONE: every child exhausted (or budget hit mid-loop, already recorded).
}

// recordIfBetter compares the current fully-expanded committed state
// against the best seen so far: more scheduled students wins; ties defer
// to the optimization pass run later over the chosen assignment set, so
// the first solution reaching a given scheduled count is kept (stable,
// deterministic given ordered iteration).
func (s *searcher) recordIfBetter() {
	assignments := s.state.Assignments()
	if len(assignments) <= len(s.best.Assignments) {
		return
	}
	scheduled := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		scheduled[a.StudentID] = true
	}
	out := make([]domain.Assignment, len(assignments))
	copy(out, assignments)
	s.best = SearchResult{
		Assignments:     out,
		Scheduled:       scheduled,
		BacktrackCount:  s.backtracks,
		ExhaustionCause: s.best.ExhaustionCause,
	}
}

func removeOne(list []string, target string) []string {
	out := make([]string, 0, len(list)-1)
	for _, id := range list {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
