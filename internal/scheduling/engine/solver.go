// Package engine implements the scheduling core: domain construction,
// constraint checking, propagation, backtracking search, and local-move
// optimization behind a single pure entrypoint, Solve.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
	"github.com/wsepesi/lesson-solver/internal/scheduling/telemetry"
)

// Solve is the engine's sole external interface (spec §6): given one
// teacher's availability and policy, a roster of students, and tunable
// options, it returns a schedule assigning as many students as possible
// without violating any hard constraint.
//
// Solve validates its inputs up front and returns an *InvalidInputError
// for anything malformed; it never attempts a partial solution against
// invalid input. Otherwise it always returns a solution — budget
// exhaustion and structurally unschedulable students are reported via
// the returned ScheduleSolution's metadata and Unscheduled list, not as
// errors, except in strict mode (PartialSolutionsAllowed=false): an empty
// domain up front returns an *UnschedulableError naming every such
// student, a search budget or cancellation that leaves students
// unscheduled returns a *ResourceExhaustedError instead, and a search that
// finishes without placing every student returns an *UnschedulableError
// naming the unplaced students — each alongside the best solution the
// engine could still assemble. A broken internal
// invariant returns an *InternalError; that always indicates an engine
// bug, never a property of the caller's input.
//
// ctx is polled cooperatively during search (spec §5): cancelling it does
// not abort Solve outright, it makes the next budget poll inside Search
// return the best partial solution found so far. A nil ctx is treated as
// context.Background().
func Solve(ctx context.Context, teacher domain.TeacherConfig, students []domain.StudentConfig, opts SolverOptions, recorder telemetry.Recorder) (domain.ScheduleSolution, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if opts.MaxTimeMs <= 0 && opts.MaxBacktracks <= 0 {
		opts = DefaultOptions()
	}
	if opts.SearchStrategy == "" {
		opts.SearchStrategy = BacktrackingStrategy
	}
	if recorder == nil {
		recorder = telemetry.NoopRecorder{}
	}
	timer := telemetry.NewStageTimer(opts.logger(), string(opts.LogLevel))

	if err := validateInputs(teacher, students); err != nil {
		return domain.ScheduleSolution{}, err
	}

	if len(students) == 0 {
		return emptySolution(0, start, timer), nil
	}

	timer.Start("domain_construction")
	domains, emptyDomain := BuildDomains(teacher, students, opts)
	timer.Stop("domain_construction")

	if len(emptyDomain) > 0 && !opts.PartialSolutionsAllowed {
		return partialSolutionForError(students, domains, opts, timer, start),
			NewUnschedulableError(sortedCopy(emptyDomain))
	}

	state := NewState(teacher, students, domains)

	order := make([]string, 0, len(students))
	for _, st := range students {
		if _, ok := domains[st.Person.ID]; ok {
			order = append(order, st.Person.ID)
		}
	}

	timer.Start("search")
	result := Search(ctx, state, order, opts)
	timer.Stop("search")

	assignments := result.Assignments

	if opts.EnableOptimizations {
		timer.Start("optimize")
		deadline := start.Add(time.Duration(opts.MaxTimeMs) * time.Millisecond)
		assignments = Optimize(assignments, domains, teacher.Constraints, func() bool {
			return time.Now().After(deadline)
		})
		timer.Stop("optimize")
	}

	sortAssignments(assignments)

	unscheduled, reasons := computeUnscheduled(students, assignments, emptyDomain)

	meta := buildMetadata(teacher, students, assignments, result, timer, start)
	recorder.ObserveSolve(meta.ScheduledStudents, meta.TotalStudents, time.Since(start), string(meta.ExhaustionCause))
	recorder.ObserveBacktracks(meta.BacktrackCount)

	solution := domain.ScheduleSolution{
		Assignments:        assignments,
		Unscheduled:        unscheduled,
		UnscheduledReasons: reasons,
		Metadata:           meta,
	}

	// Strict mode never silently returns an incomplete solution: a budget
	// or cancellation exhaustion that left students unscheduled is a
	// resource exhaustion, distinct from the structural UnschedulableError
	// returned earlier for empty-domain students. Informational, not
	// fatal — the solution above is still returned alongside it.
	if !opts.PartialSolutionsAllowed && result.ExhaustionCause != domain.ExhaustionNone && len(unscheduled) > 0 {
		return solution, NewResourceExhaustedError(resourceExhaustedCause(result.ExhaustionCause), exhaustionBudget(opts, result.ExhaustionCause))
	}
	// A strict search that ran to completion without placing everyone
	// reports the students it could not place.
	if !opts.PartialSolutionsAllowed && len(unscheduled) > 0 {
		return solution, NewUnschedulableError(unscheduled)
	}

	if err := verifyAssignmentInvariants(assignments, students); err != nil {
		return solution, err
	}

	return solution, nil
}

// validateInputs enforces spec §6's entry constraints: canonical week
// schedules and sane durations, for the teacher and every student.
func validateInputs(teacher domain.TeacherConfig, students []domain.StudentConfig) error {
	if !teacher.Availability.IsCanonical() {
		return NewInvalidInputError("teacher.availability", "week schedule is not canonical (overlapping or unsorted blocks)")
	}
	if teacher.Constraints.MinLessonDuration <= 0 {
		return NewInvalidInputError("teacher.constraints.minLessonDuration", "must be positive")
	}
	if teacher.Constraints.MaxLessonDuration < teacher.Constraints.MinLessonDuration {
		return NewInvalidInputError("teacher.constraints.maxLessonDuration", "must be >= minLessonDuration")
	}
	for _, d := range teacher.Constraints.AllowedDurations {
		if d <= 0 {
			return NewInvalidInputError("teacher.constraints.allowedDurations", "durations must be positive")
		}
	}

	seen := make(map[string]bool, len(students))
	for _, st := range students {
		if st.Person.ID == "" {
			return NewInvalidInputError("student.person.id", "must not be empty")
		}
		if seen[st.Person.ID] {
			return NewInvalidInputError("student.person.id", "duplicate student id: "+st.Person.ID)
		}
		seen[st.Person.ID] = true

		if !st.Availability.IsCanonical() {
			return NewInvalidInputError("student.availability", "week schedule is not canonical for student "+st.Person.ID)
		}
		if st.PreferredDuration <= 0 {
			return NewInvalidInputError("student.preferredDuration", "must be positive for student "+st.Person.ID)
		}
	}
	return nil
}

func emptySolution(total int, start time.Time, timer *telemetry.StageTimer) domain.ScheduleSolution {
	return domain.ScheduleSolution{
		Assignments: []domain.Assignment{},
		Unscheduled: []string{},
		Metadata: domain.SolutionMetadata{
			TotalStudents:      total,
			ScheduledStudents:  0,
			AverageUtilization: 0,
			ComputeTimeMs:      time.Since(start).Milliseconds(),
			StageTimingsMs:     timer.Snapshot(),
		},
	}
}

// partialSolutionForError assembles the best-effort solution returned
// alongside an UnschedulableError in strict mode: every empty-domain
// student is reported, and no assignments are attempted since strict
// mode aborts before search ever runs.
func partialSolutionForError(students []domain.StudentConfig, domains Domains, opts SolverOptions, timer *telemetry.StageTimer, start time.Time) domain.ScheduleSolution {
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.Person.ID
	}
	sort.Strings(ids)

	reasons := make(map[string]string)
	for _, st := range students {
		if _, ok := domains[st.Person.ID]; !ok {
			reasons[st.Person.ID] = "no candidate slot satisfies teacher and student availability"
		}
	}

	return domain.ScheduleSolution{
		Assignments:        []domain.Assignment{},
		Unscheduled:        ids,
		UnscheduledReasons: reasons,
		Metadata: domain.SolutionMetadata{
			TotalStudents:      len(students),
			ScheduledStudents:  0,
			AverageUtilization: 0,
			ComputeTimeMs:      time.Since(start).Milliseconds(),
			StageTimingsMs:     timer.Snapshot(),
		},
	}
}

// computeUnscheduled derives the Unscheduled list and its reasons from
// whoever didn't end up in the final assignment set: empty-domain
// students get a structural reason, everyone else parked-at-a-node by
// the search gets a budget/constraint reason.
func computeUnscheduled(students []domain.StudentConfig, assignments []domain.Assignment, emptyDomain []string) ([]string, map[string]string) {
	scheduled := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		scheduled[a.StudentID] = true
	}
	empty := make(map[string]bool, len(emptyDomain))
	for _, id := range emptyDomain {
		empty[id] = true
	}

	var unscheduled []string
	reasons := make(map[string]string)
	for _, st := range students {
		if scheduled[st.Person.ID] {
			continue
		}
		unscheduled = append(unscheduled, st.Person.ID)
		if empty[st.Person.ID] {
			reasons[st.Person.ID] = "no candidate slot satisfies teacher and student availability"
		} else {
			reasons[st.Person.ID] = "no feasible placement found within search budget"
		}
	}
	sort.Strings(unscheduled)
	if len(unscheduled) == 0 {
		unscheduled = []string{}
	}
	return unscheduled, reasons
}

// buildMetadata assembles SolutionMetadata (spec §6): totals, average
// teacher utilization across the assigned week, compute time, and the
// exhaustion cause if the search budget was hit.
func buildMetadata(teacher domain.TeacherConfig, students []domain.StudentConfig, assignments []domain.Assignment, result SearchResult, timer *telemetry.StageTimer, start time.Time) domain.SolutionMetadata {
	totalAvailable := 0
	for _, d := range teacher.Availability.Days {
		totalAvailable += d.TotalMinutes()
	}
	used := 0
	for _, a := range assignments {
		used += a.DurationMinutes
	}
	utilization := 0.0
	if totalAvailable > 0 {
		utilization = float64(used) / float64(totalAvailable)
	}

	return domain.SolutionMetadata{
		TotalStudents:      len(students),
		ScheduledStudents:  len(assignments),
		AverageUtilization: utilization,
		ComputeTimeMs:      time.Since(start).Milliseconds(),
		BacktrackCount:     result.BacktrackCount,
		ExhaustionCause:    result.ExhaustionCause,
		StageTimingsMs:     timer.Snapshot(),
	}
}

// sortAssignments enforces spec §6's output ordering:
// (dayOfWeek, startMinute, studentId).
func sortAssignments(assignments []domain.Assignment) {
	sort.Slice(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartMinute != b.StartMinute {
			return a.StartMinute < b.StartMinute
		}
		return a.StudentID < b.StudentID
	})
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

// resourceExhaustedCause maps the search's exhaustion cause onto the
// ResourceExhaustedError taxonomy exposed to callers.
func resourceExhaustedCause(cause domain.ExhaustionCause) ResourceExhaustedCause {
	switch cause {
	case domain.ExhaustionBacktracks:
		return ResourceExhaustedBacktracks
	case domain.ExhaustionCancelled:
		return ResourceExhaustedCancelled
	default:
		return ResourceExhaustedTime
	}
}

// exhaustionBudget reports the budget value that was hit, matching cause.
func exhaustionBudget(opts SolverOptions, cause domain.ExhaustionCause) int64 {
	if cause == domain.ExhaustionBacktracks {
		return int64(opts.MaxBacktracks)
	}
	return opts.MaxTimeMs
}

// verifyAssignmentInvariants is a defensive re-check of two invariants the
// search and optimization passes are supposed to guarantee on their own:
// no student is double-booked, and every assignment names a student who
// was actually part of the request. A violation here means the engine
// itself has a bug, never a property of the caller's input.
func verifyAssignmentInvariants(assignments []domain.Assignment, students []domain.StudentConfig) error {
	known := make(map[string]bool, len(students))
	for _, st := range students {
		known[st.Person.ID] = true
	}

	seen := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if !known[a.StudentID] {
			return NewInternalError("assignment_unknown_student", fmt.Errorf("assignment references unrequested student %q", a.StudentID))
		}
		if seen[a.StudentID] {
			return NewInternalError("assignment_double_booked", fmt.Errorf("student %q appears in more than one assignment", a.StudentID))
		}
		seen[a.StudentID] = true
	}
	return nil
}
