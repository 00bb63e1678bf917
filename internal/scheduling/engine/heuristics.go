package engine

import (
	"math/rand"
	"sort"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
)

// adjacencyWeight and lcvWeight tune the value-ordering objective's
// adjacency and least-constraining-value terms against the base
// mid-day/weekday score computed at domain construction.
const (
	adjacencyWeight = 25.0
	lcvWeight       = 3.0
)

// SelectVariable implements MRV-with-tightness-tie-break (spec §4.6): the
// unassigned student with the fewest remaining candidates goes first;
// ties break toward the student with the highest degree (most other
// unassigned students whose domains share an overlapping candidate on
// the same day). With heuristics disabled, static insertion order (the
// order studentIDs were handed to the search) is used instead.
func SelectVariable(state *State, unassigned []string, useHeuristics bool) string {
	if len(unassigned) == 0 {
		return ""
	}
	if !useHeuristics {
		return unassigned[0]
	}

	best := unassigned[0]
	bestCount := state.RemainingCount(best)
	bestDegree := -1

	for _, id := range unassigned[1:] {
		count := state.RemainingCount(id)
		switch {
		case count < bestCount:
			best, bestCount, bestDegree = id, count, -1
		case count == bestCount:
			if bestDegree < 0 {
				bestDegree = degree(state, best, unassigned)
			}
			d := degree(state, id, unassigned)
			if d > bestDegree {
				best, bestDegree = id, d
			}
		}
	}
	return best
}

// degree counts how many other unassigned students share at least one
// overlapping candidate (same day, overlapping interval) with studentID.
func degree(state *State, studentID string, unassigned []string) int {
	mine := state.Remaining(studentID)
	count := 0
	for _, other := range unassigned {
		if other == studentID {
			continue
		}
		if shareOverlap(mine, state.Remaining(other)) {
			count++
		}
	}
	return count
}

func shareOverlap(a, b []domain.CandidateSlot) bool {
	for _, x := range a {
		for _, y := range b {
			if x.DayOfWeek == y.DayOfWeek && x.Interval().Overlaps(y.Interval()) {
				return true
			}
		}
	}
	return false
}

// OrderValues implements value ordering (spec §4.6): with heuristics on,
// each live candidate is scored as its base composite plus an adjacency
// term (biased by backToBackPreference) plus a least-constraining-value
// term (fewer eliminations from other domains scores higher), then
// sorted descending. With heuristics off, the live candidates are
// returned in their static domain order.
func OrderValues(state *State, studentID string, useHeuristics bool, rng *rand.Rand) []domain.CandidateSlot {
	live := state.Remaining(studentID)
	if !useHeuristics {
		return live
	}

	type scored struct {
		slot   domain.CandidateSlot
		score  float64
		jitter float64
	}
	out := make([]scored, len(live))
	for i, slot := range live {
		jitter := 0.0
		if rng != nil {
			jitter = rng.Float64()
		}
		out[i] = scored{
			slot:   slot,
			score:  slot.Score + adjacencyTerm(state, slot) - lcvWeight*float64(countEliminations(state, slot)),
			jitter: jitter,
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		// Deterministic tie-break: each candidate's jitter is drawn once
		// from the seeded RNG up front, so comparing it here is a proper
		// transitive ordering rather than a fresh coin flip per pair.
		if rng != nil {
			return out[i].jitter < out[j].jitter
		}
		return out[i].slot.StartMinute < out[j].slot.StartMinute
	})

	result := make([]domain.CandidateSlot, len(out))
	for i, s := range out {
		result[i] = s.slot
	}
	return result
}

// adjacencyTerm rewards or penalizes a candidate for touching an existing
// assignment on the same day, per the studio's backToBackPreference.
func adjacencyTerm(state *State, slot domain.CandidateSlot) float64 {
	pref := state.constraints.BackToBackPreference
	if pref == domain.PreferAgnostic || pref == "" {
		return 0
	}

	iv := slot.Interval()
	adjacent := false
	for _, existing := range state.dayIndex.DayIntervals(slot.DayOfWeek) {
		if existing.End() == iv.Start || iv.End() == existing.Start {
			adjacent = true
			break
		}
	}
	if !adjacent {
		return 0
	}
	if pref == domain.PreferMaximize {
		return adjacencyWeight
	}
	return -adjacencyWeight
}

// countEliminations is the least-constraining-value term: how many
// candidates across other unassigned students' live domains would be
// pruned if slot were committed. Lower is better for the candidate being
// scored, so OrderValues subtracts a weighted count rather than adding it.
func countEliminations(state *State, slot domain.CandidateSlot) int {
	iv := slot.Interval()
	state.dayIndex.Insert(slot.DayOfWeek, slot.StudentID, iv)
	defer state.dayIndex.Remove(slot.DayOfWeek, slot.StudentID, iv)

	eliminated := 0
	for studentID, slots := range state.domains {
		if studentID == slot.StudentID || state.IsAssigned(studentID) {
			continue
		}
		mask := state.alive[studentID]
		for i, candidate := range slots {
			if !mask[i] {
				continue
			}
			if state.dayIndex.Violates(candidate.DayOfWeek, candidate.Interval(), state.constraints) {
				eliminated++
			}
		}
	}
	return eliminated
}
