package engine

import (
	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
)

// Domains maps each student's ID to their candidate slots, in natural
// generation order (day ascending, then start ascending) — the "static
// insertion order" spec §4.6 falls back to when heuristics are disabled.
// Each slot's Score field carries the pre-search composite (§4.2 step 5),
// which the value-ordering heuristic builds on when heuristics are on.
type Domains map[string][]domain.CandidateSlot

// BuildDomains runs domain construction (spec §4.2): intersect the
// teacher's and each student's weekly availability, pick the duration(s)
// the studio's policy allows for that student, enumerate grid-aligned
// candidate starts inside each overlap block, and score the result.
//
// A student with no candidates at all is not an error here: their ID is
// returned in emptyDomain and they get no entry in domains. Solve leaves
// them out of the search order, and reports them in Unscheduled (partial
// mode) or in an UnschedulableError (strict mode).
func BuildDomains(teacher domain.TeacherConfig, students []domain.StudentConfig, opts SolverOptions) (domains Domains, emptyDomain []string) {
	grid := opts.grid()
	domains = make(Domains, len(students))

	for _, student := range students {
		slots := candidatesForStudent(teacher, student, grid)
		if len(slots) == 0 {
			emptyDomain = append(emptyDomain, student.Person.ID)
			continue
		}
		domains[student.Person.ID] = slots
	}
	return domains, emptyDomain
}

func candidatesForStudent(teacher domain.TeacherConfig, student domain.StudentConfig, grid int) []domain.CandidateSlot {
	var slots []domain.CandidateSlot

	for day := 0; day < domain.DaysPerWeek; day++ {
		overlap := domain.IntersectSequence(teacher.Availability.Days[day].Blocks, student.Availability.Days[day].Blocks)
		for _, block := range overlap {
			durations := candidateDurations(teacher.Constraints, student.PreferredDuration)
			for _, duration := range durations {
				if duration <= 0 || duration > block.Duration {
					continue
				}
				if !teacher.Constraints.DurationAllowed(duration) {
					continue
				}
				for _, start := range candidateStarts(block, duration, grid) {
					slots = append(slots, domain.CandidateSlot{
						StudentID:       student.Person.ID,
						DayOfWeek:       day,
						StartMinute:     start,
						DurationMinutes: duration,
						Score:           baseScore(day, start, duration, teacher.Constraints.BackToBackPreference),
					})
				}
			}
		}
	}

	return slots
}

// candidateDurations picks the duration(s) eligible for this student
// within one overlap block, per spec §4.2 step 2.
func candidateDurations(c domain.SchedulingConstraints, preferred int) []int {
	if len(c.AllowedDurations) > 0 {
		for _, d := range c.AllowedDurations {
			if d == preferred {
				return []int{d}
			}
		}
		best := 0
		for _, d := range c.AllowedDurations {
			if d <= preferred && d > best {
				best = d
			}
		}
		if best == 0 {
			return nil
		}
		return []int{best}
	}

	d := preferred
	if d < c.MinLessonDuration {
		d = c.MinLessonDuration
	}
	if c.MaxLessonDuration > 0 && d > c.MaxLessonDuration {
		d = c.MaxLessonDuration
	}
	return []int{d}
}

// candidateStarts enumerates every grid-aligned start within block that
// leaves room for duration, always including the block's own start (spec
// §4.2 step 3: "the solver MUST also include s itself").
func candidateStarts(block domain.Interval, duration, grid int) []int {
	if grid <= 0 {
		grid = 15
	}
	var starts []int
	last := block.End() - duration
	if last < block.Start {
		return nil
	}
	for start := block.Start; start <= last; start += grid {
		starts = append(starts, start)
	}
	// Guarantee the block boundary itself is covered even when grid
	// doesn't evenly divide the remaining room.
	if len(starts) == 0 || starts[len(starts)-1] != last {
		starts = append(starts, last)
	}
	return starts
}

// baseScore is the static, pre-search composite score from spec §4.2
// step 5 / §4.6: proximity to midday and weekday preference. The
// adjacency and LCV terms are computed later, at search time, since they
// depend on the partial assignment (§4.6).
func baseScore(day, start, duration int, pref domain.BackToBackPreference) float64 {
	const middayMinute = 13 * 60 // 13:00, midpoint of the 10:00-16:00 window
	mid := start + duration/2
	distance := mid - middayMinute
	if distance < 0 {
		distance = -distance
	}
	score := 100.0 - float64(distance)/10.0

	if day >= domain.Monday && day <= domain.Friday {
		score += 5.0
	}
	return score
}
