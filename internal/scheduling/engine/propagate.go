package engine

import (
	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
)

// trailEntry is one undoable mutation: student S's candidate at Index
// went from alive to pruned.
type trailEntry struct {
	studentID string
	index     int
}

// Trail is the undo log for domain pruning (spec §4.3, §9): every prune
// performed while exploring a branch is recorded here so backtracking can
// restore the exact prior state, in the order required for determinism.
type Trail struct {
	entries []trailEntry
}

// Mark returns a position to later Undo back to.
func (t *Trail) Mark() int { return len(t.entries) }

// Undo restores every pruned candidate recorded since mark.
func (t *Trail) Undo(mark int, state *State) {
	for i := len(t.entries) - 1; i >= mark; i-- {
		e := t.entries[i]
		state.alive[e.studentID][e.index] = true
	}
	t.entries = t.entries[:mark]
}

func (t *Trail) record(studentID string, index int) {
	t.entries = append(t.entries, trailEntry{studentID: studentID, index: index})
}

// State is the solver's mutable search state: the constraint-checked
// per-day index of committed assignments, each student's live candidate
// mask, and the trail that makes both undoable. One State belongs to
// exactly one Solve call; nothing here is shared across concurrent solves.
type State struct {
	teacher     domain.TeacherConfig
	students    map[string]domain.StudentConfig
	domains     Domains
	alive       map[string][]bool
	assigned    map[string]domain.CandidateSlot
	dayIndex    *DayIndex
	trail       *Trail
	constraints domain.SchedulingConstraints
}

// NewState builds search state from already-constructed domains.
func NewState(teacher domain.TeacherConfig, students []domain.StudentConfig, domains Domains) *State {
	s := &State{
		teacher:     teacher,
		students:    make(map[string]domain.StudentConfig, len(students)),
		domains:     domains,
		alive:       make(map[string][]bool, len(domains)),
		assigned:    make(map[string]domain.CandidateSlot),
		dayIndex:    NewDayIndex(),
		trail:       &Trail{},
		constraints: teacher.Constraints,
	}
	for _, st := range students {
		s.students[st.Person.ID] = st
	}
	for id, slots := range domains {
		mask := make([]bool, len(slots))
		for i := range mask {
			mask[i] = true
		}
		s.alive[id] = mask
	}
	return s
}

// Remaining returns the currently-alive candidates for studentID, in
// domain order.
func (s *State) Remaining(studentID string) []domain.CandidateSlot {
	slots := s.domains[studentID]
	mask := s.alive[studentID]
	out := make([]domain.CandidateSlot, 0, len(slots))
	for i, slot := range slots {
		if mask[i] {
			out = append(out, slot)
		}
	}
	return out
}

// RemainingCount is the MRV heuristic's raw input: |D[S]|.
func (s *State) RemainingCount(studentID string) int {
	n := 0
	for _, alive := range s.alive[studentID] {
		if alive {
			n++
		}
	}
	return n
}

// IsAssigned reports whether studentID already has a committed slot.
func (s *State) IsAssigned(studentID string) bool {
	_, ok := s.assigned[studentID]
	return ok
}

// Mark returns a trail position to later Undo to.
func (s *State) Mark() int { return s.trail.Mark() }

// Undo reverts every domain prune recorded since mark.
func (s *State) Undo(mark int) { s.trail.Undo(mark, s) }

// Assign commits studentID to slot: checks the hard constraints against
// the current day index, inserts on success, and forward-checks every
// other unassigned student's domain to a fixed point (spec §4.3).
//
// Because all assignments share one global per-day index rather than
// per-pair arcs, a single filtering pass over each unassigned student's
// domain already reaches the fixed point: nothing about one unassigned
// student's remaining candidates can change as a side effect of pruning
// another's, only as a side effect of the day index gaining the new
// assignment, which has already happened before the pass runs.
//
// Returns ok=false if the slot itself violates a hard constraint — day
// index overlap/break/consecutive rules, duration, or (defensively,
// WithinAvailability) the teacher/student availability constraint-2
// re-check — in which case nothing is mutated; starved lists any
// unassigned student whose domain became empty as a result of propagation.
func (s *State) Assign(slot domain.CandidateSlot, useConstraintPropagation bool) (ok bool, starved []string) {
	iv := slot.Interval()
	if s.dayIndex.Violates(slot.DayOfWeek, iv, s.constraints) {
		return false, nil
	}
	if !ValidDuration(s.constraints, slot.DurationMinutes) {
		return false, nil
	}
	if !WithinAvailability(s.teacher.Availability, s.students[slot.StudentID].Availability, slot.DayOfWeek, iv) {
		return false, nil
	}

	s.dayIndex.Insert(slot.DayOfWeek, slot.StudentID, iv)
	s.assigned[slot.StudentID] = slot

	if !useConstraintPropagation {
		return true, nil
	}

	for studentID, slots := range s.domains {
		if studentID == slot.StudentID || s.IsAssigned(studentID) {
			continue
		}
		mask := s.alive[studentID]
		for i, candidate := range slots {
			if !mask[i] {
				continue
			}
			if s.dayIndex.Violates(candidate.DayOfWeek, candidate.Interval(), s.constraints) {
				mask[i] = false
				s.trail.record(studentID, i)
			}
		}
		if s.RemainingCount(studentID) == 0 {
			starved = append(starved, studentID)
		}
	}
	return true, starved
}

// Unassign is the inverse of Assign's day-index mutation. Domain prunes
// performed during the matching Assign are reverted separately via Undo,
// using the trail mark captured before Assign was called.
func (s *State) Unassign(slot domain.CandidateSlot) {
	s.dayIndex.Remove(slot.DayOfWeek, slot.StudentID, slot.Interval())
	delete(s.assigned, slot.StudentID)
}

// Assignments returns every committed assignment, unsorted.
func (s *State) Assignments() []domain.Assignment {
	return s.dayIndex.Assignments()
}
