package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
	"github.com/wsepesi/lesson-solver/internal/scheduling/engine"
)

func TestState_AssignPropagatesAndStarves(t *testing.T) {
	teacher := domain.TeacherConfig{
		Availability: blockWeek(domain.Monday, 540, 60),
		Constraints:  studioConstraints(0, 0, 60, 60),
	}
	avail := blockWeek(domain.Monday, 540, 60)
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: avail},
		{Person: person("s2"), PreferredDuration: 60, Availability: avail},
	}

	domains, _ := engine.BuildDomains(teacher, students, engine.DefaultOptions())
	state := engine.NewState(teacher, students, domains)

	require.NotEmpty(t, domains["s1"])
	ok, starved := state.Assign(domains["s1"][0], true)
	require.True(t, ok)
	assert.Contains(t, starved, "s2")
	assert.Equal(t, 0, state.RemainingCount("s2"))
}

func TestState_UndoRestoresPrunedCandidates(t *testing.T) {
	teacher := domain.TeacherConfig{
		Availability: blockWeek(domain.Monday, 540, 60),
		Constraints:  studioConstraints(0, 0, 60, 60),
	}
	avail := blockWeek(domain.Monday, 540, 60)
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: avail},
		{Person: person("s2"), PreferredDuration: 60, Availability: avail},
	}

	domains, _ := engine.BuildDomains(teacher, students, engine.DefaultOptions())
	state := engine.NewState(teacher, students, domains)

	mark := state.Mark()
	ok, _ := state.Assign(domains["s1"][0], true)
	require.True(t, ok)
	require.Equal(t, 0, state.RemainingCount("s2"))

	state.Undo(mark)
	state.Unassign(domains["s1"][0])

	assert.Equal(t, len(domains["s2"]), state.RemainingCount("s2"))
	assert.Empty(t, state.Assignments())
}

func TestState_AssignRejectsHardConstraintViolation(t *testing.T) {
	teacher := domain.TeacherConfig{
		Availability: blockWeek(domain.Monday, 540, 120),
		Constraints:  studioConstraints(0, 0, 60, 60),
	}
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: blockWeek(domain.Monday, 540, 120)},
	}
	domains, _ := engine.BuildDomains(teacher, students, engine.DefaultOptions())
	state := engine.NewState(teacher, students, domains)

	slot := domains["s1"][0]
	ok, _ := state.Assign(slot, true)
	require.True(t, ok)

	// Re-assigning the same student's own committed slot overlaps itself.
	ok, _ = state.Assign(slot, true)
	assert.False(t, ok)
}
