package engine

import (
	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
)

// Optimization objective weights (spec §4.7). Implementation-defined but
// stable: fragmentation dominates, then weekday spread, then midday fit.
const (
	weightFragmentation = 3.0
	weightWeekdaySpread = 1.5
	weightMiddayDeviation = 1.0
)

// Optimize runs the local-move improvement pass (spec §4.7) over a
// committed assignment set: repeatedly try swap and relocate moves,
// keeping any that strictly improve the objective, until no improving
// move exists or the budget expires. domains supplies each student's full
// (pre-search) candidate list so relocate can consider slots never tried
// during search.
func Optimize(assignments []domain.Assignment, domains Domains, constraints domain.SchedulingConstraints, deadline func() bool) []domain.Assignment {
	current := make([]domain.Assignment, len(assignments))
	copy(current, assignments)

	for {
		if deadline() {
			break
		}
		improved, next := improveOnce(current, domains, constraints)
		if !improved {
			break
		}
		current = next
	}
	return current
}

func improveOnce(assignments []domain.Assignment, domains Domains, constraints domain.SchedulingConstraints) (bool, []domain.Assignment) {
	base := objective(assignments, constraints)

	// Swap moves: exchange two students' committed slots when each is in
	// the other's domain.
	for i := range assignments {
		for j := i + 1; j < len(assignments); j++ {
			candidate := trySwap(assignments, i, j, domains)
			if candidate == nil {
				continue
			}
			if !feasible(candidate, constraints) {
				continue
			}
			if objective(candidate, constraints) < base {
				return true, candidate
			}
		}
	}

	// Relocate moves: move one student to an alternative domain slot.
	for i := range assignments {
		studentID := assignments[i].StudentID
		for _, slot := range domains[studentID] {
			if slot.ToAssignment() == assignments[i] {
				continue
			}
			candidate := make([]domain.Assignment, len(assignments))
			copy(candidate, assignments)
			candidate[i] = slot.ToAssignment()

			if !feasible(candidate, constraints) {
				continue
			}
			if objective(candidate, constraints) < base {
				return true, candidate
			}
		}
	}

	return false, assignments
}

func trySwap(assignments []domain.Assignment, i, j int, domains Domains) []domain.Assignment {
	a, b := assignments[i], assignments[j]
	if !slotInDomain(domains[a.StudentID], b.DayOfWeek, b.StartMinute, a.DurationMinutes) {
		return nil
	}
	if !slotInDomain(domains[b.StudentID], a.DayOfWeek, a.StartMinute, b.DurationMinutes) {
		return nil
	}
	out := make([]domain.Assignment, len(assignments))
	copy(out, assignments)
	out[i] = domain.Assignment{StudentID: a.StudentID, DayOfWeek: b.DayOfWeek, StartMinute: b.StartMinute, DurationMinutes: a.DurationMinutes}
	out[j] = domain.Assignment{StudentID: b.StudentID, DayOfWeek: a.DayOfWeek, StartMinute: a.StartMinute, DurationMinutes: b.DurationMinutes}
	return out
}

func slotInDomain(slots []domain.CandidateSlot, day, start, duration int) bool {
	for _, s := range slots {
		if s.DayOfWeek == day && s.StartMinute == start && s.DurationMinutes == duration {
			return true
		}
	}
	return false
}

// feasible re-checks the hard constraints over a whole candidate
// assignment set from scratch — cheap enough at the scale this engine
// targets, and it keeps the optimization pass decoupled from the search
// driver's incremental DayIndex/trail machinery.
func feasible(assignments []domain.Assignment, constraints domain.SchedulingConstraints) bool {
	idx := NewDayIndex()
	for _, a := range assignments {
		if idx.Violates(a.DayOfWeek, a.Interval(), constraints) {
			return false
		}
		idx.Insert(a.DayOfWeek, a.StudentID, a.Interval())
	}
	return true
}

// objective is the weighted sum spec §4.7 defines, lower is better.
// backToBackPreference flips the sign of the fragmentation term: a studio
// that prefers maximize wants LESS fragmentation (reward adjacency), one
// that prefers minimize wants MORE spread between lessons.
func objective(assignments []domain.Assignment, constraints domain.SchedulingConstraints) float64 {
	var byDay [domain.DaysPerWeek][]domain.Interval
	for _, a := range assignments {
		byDay[a.DayOfWeek] = append(byDay[a.DayOfWeek], a.Interval())
	}

	// frag sums the gaps between consecutive same-day assignments: larger
	// means more spread out. Under maximize, the objective should reward
	// SMALL gaps (fragSign=+1, so less frag -> lower/better objective);
	// under minimize, it should reward LARGE gaps (fragSign=-1).
	fragSign := 0.0
	switch constraints.BackToBackPreference {
	case domain.PreferMaximize:
		fragSign = 1.0
	case domain.PreferMinimize:
		fragSign = -1.0
	}

	frag := 0.0
	middayDev := 0.0
	daysUsed := map[int]bool{}
	for day, ivs := range byDay {
		if len(ivs) == 0 {
			continue
		}
		daysUsed[day] = true
		sorted := make([]domain.Interval, len(ivs))
		copy(sorted, ivs)
		sortByStart(sorted)
		for i, iv := range sorted {
			mid := iv.Start + iv.Duration/2
			dist := mid - 13*60
			if dist < 0 {
				dist = -dist
			}
			middayDev += float64(dist)

			if i > 0 {
				gap := iv.Start - sorted[i-1].End()
				frag += float64(gap)
			}
		}
	}

	spread := float64(len(daysUsed))

	return fragSign*weightFragmentation*frag +
		weightWeekdaySpread*spread +
		weightMiddayDeviation*middayDev/60.0
}

func sortByStart(ivs []domain.Interval) {
	for i := 1; i < len(ivs); i++ {
		for j := i; j > 0 && ivs[j].Start < ivs[j-1].Start; j-- {
			ivs[j], ivs[j-1] = ivs[j-1], ivs[j]
		}
	}
}
