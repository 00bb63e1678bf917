package engine

import (
	"sort"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
)

// placed is one committed assignment tracked inside a single weekday's
// sorted index.
type placed struct {
	studentID string
	interval  domain.Interval
}

// DayIndex is the per-day sorted assignment list the spec requires (§4.3)
// so the consecutive-run/break check stays O(k log k) per insertion
// instead of re-scanning every assignment on every candidate.
type DayIndex struct {
	days [domain.DaysPerWeek][]placed
}

// NewDayIndex returns an empty per-day index.
func NewDayIndex() *DayIndex {
	return &DayIndex{}
}

// Violates reports whether adding candidate to day would break the
// no-overlap or consecutive-run/break hard constraints, without
// mutating the index.
func (idx *DayIndex) Violates(day int, candidate domain.Interval, c domain.SchedulingConstraints) bool {
	existing := idx.days[day]

	for _, p := range existing {
		if p.interval.Overlaps(candidate) {
			return true
		}
	}

	merged := make([]domain.Interval, 0, len(existing)+1)
	for _, p := range existing {
		merged = append(merged, p.interval)
	}
	merged = append(merged, candidate)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })

	return violatesConsecutiveRun(merged, c)
}

// Insert commits candidate to day's index, keeping it sorted by start.
func (idx *DayIndex) Insert(day int, studentID string, candidate domain.Interval) {
	list := idx.days[day]
	pos := sort.Search(len(list), func(i int) bool { return list[i].interval.Start >= candidate.Start })
	list = append(list, placed{})
	copy(list[pos+1:], list[pos:])
	list[pos] = placed{studentID: studentID, interval: candidate}
	idx.days[day] = list
}

// Remove undoes a prior Insert. It is the trail's undo primitive, so it
// must restore the index to exactly its pre-Insert state.
func (idx *DayIndex) Remove(day int, studentID string, candidate domain.Interval) {
	list := idx.days[day]
	for i, p := range list {
		if p.studentID == studentID && p.interval == candidate {
			idx.days[day] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Assignments returns every committed assignment across all days, not
// sorted across days (the caller sorts the final output per spec §6).
func (idx *DayIndex) Assignments() []domain.Assignment {
	var out []domain.Assignment
	for day, list := range idx.days {
		for _, p := range list {
			out = append(out, domain.Assignment{
				StudentID:       p.studentID,
				DayOfWeek:       day,
				StartMinute:     p.interval.Start,
				DurationMinutes: p.interval.Duration,
			})
		}
	}
	return out
}

// DayIntervals returns the committed intervals on one weekday, sorted by
// start. Used by the adjacency term of value ordering (§4.6).
func (idx *DayIndex) DayIntervals(day int) []domain.Interval {
	list := idx.days[day]
	out := make([]domain.Interval, len(list))
	for i, p := range list {
		out[i] = p.interval
	}
	return out
}

// violatesConsecutiveRun implements spec §4.3 constraint 4: form maximal
// runs of assignments whose pairwise gap is smaller than the required
// break, and reject if any run's total exceeds MaxConsecutiveMinutes.
// A zero MaxConsecutiveMinutes means the studio places no cap.
func violatesConsecutiveRun(sorted []domain.Interval, c domain.SchedulingConstraints) bool {
	if c.MaxConsecutiveMinutes <= 0 {
		return false
	}
	runTotal := 0
	for i, iv := range sorted {
		if i == 0 {
			runTotal = iv.Duration
		} else {
			gap := iv.Start - sorted[i-1].End()
			if gap < c.BreakDurationMinutes {
				runTotal += iv.Duration
			} else {
				runTotal = iv.Duration
			}
		}
		if runTotal > c.MaxConsecutiveMinutes {
			return true
		}
	}
	return false
}

// ValidDuration re-checks spec §4.3 constraint 3 defensively, against
// the studio's duration policy alone (no day state involved).
func ValidDuration(c domain.SchedulingConstraints, durationMinutes int) bool {
	return c.DurationAllowed(durationMinutes)
}

// WithinAvailability re-checks spec §4.3 constraint 2 defensively: the
// candidate must still lie fully inside both the teacher's and the
// student's canonical availability for that weekday.
func WithinAvailability(teacher domain.WeekSchedule, student domain.WeekSchedule, day int, iv domain.Interval) bool {
	return blockContains(teacher.Days[day].Blocks, iv) && blockContains(student.Days[day].Blocks, iv)
}

func blockContains(blocks []domain.Interval, iv domain.Interval) bool {
	for _, b := range blocks {
		if b.ContainsInterval(iv) {
			return true
		}
	}
	return false
}
