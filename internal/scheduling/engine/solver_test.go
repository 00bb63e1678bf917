package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsepesi/lesson-solver/internal/scheduling/domain"
	"github.com/wsepesi/lesson-solver/internal/scheduling/engine"
)

func person(id string) domain.Person {
	return domain.Person{ID: id, Name: id}
}

func blockWeek(day int, start, duration int) domain.WeekSchedule {
	var perDay [domain.DaysPerWeek][]domain.Interval
	perDay[day] = []domain.Interval{{Start: start, Duration: duration}}
	return domain.NewWeekSchedule("UTC", perDay)
}

func studioConstraints(maxConsecutive, breakMinutes, minDur, maxDur int) domain.SchedulingConstraints {
	return domain.SchedulingConstraints{
		MaxConsecutiveMinutes: maxConsecutive,
		BreakDurationMinutes:  breakMinutes,
		MinLessonDuration:     minDur,
		MaxLessonDuration:     maxDur,
		BackToBackPreference:  domain.PreferAgnostic,
	}
}

// Scenario A — trivial fit.
func TestSolve_ScenarioA_TrivialFit(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: blockWeek(domain.Monday, 540, 180),
		Constraints: domain.SchedulingConstraints{
			MaxConsecutiveMinutes: 240,
			BreakDurationMinutes:  15,
			MinLessonDuration:     60,
			MaxLessonDuration:     60,
			AllowedDurations:      []int{60},
			BackToBackPreference:  domain.PreferAgnostic,
		},
	}
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: blockWeek(domain.Monday, 540, 180)},
	}

	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	require.Len(t, solution.Assignments, 1)
	assert.Equal(t, domain.Assignment{StudentID: "s1", DayOfWeek: domain.Monday, StartMinute: 540, DurationMinutes: 60}, solution.Assignments[0])
	assert.Empty(t, solution.Unscheduled)
}

// Scenario B — break enforcement.
func TestSolve_ScenarioB_BreakEnforcement(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: blockWeek(domain.Monday, 540, 270),
		Constraints:  studioConstraints(120, 30, 120, 120),
	}
	avail := blockWeek(domain.Monday, 540, 270)
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 120, Availability: avail},
		{Person: person("s2"), PreferredDuration: 120, Availability: avail},
	}

	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	require.Len(t, solution.Assignments, 2)
	assert.Empty(t, solution.Unscheduled)

	first, second := solution.Assignments[0], solution.Assignments[1]
	assert.Equal(t, 540, first.StartMinute)
	assert.GreaterOrEqual(t, second.StartMinute, 540+120+30)
}

// Scenario C — forced partial.
func TestSolve_ScenarioC_ForcedPartial(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: blockWeek(domain.Monday, 540, 120),
		Constraints:  studioConstraints(0, 0, 60, 60),
	}
	avail := blockWeek(domain.Monday, 540, 120)
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: avail},
		{Person: person("s2"), PreferredDuration: 60, Availability: avail},
		{Person: person("s3"), PreferredDuration: 60, Availability: avail},
	}

	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Len(t, solution.Assignments, 2)
	assert.Len(t, solution.Unscheduled, 1)
	assert.Equal(t, 3, solution.Metadata.TotalStudents)
	assert.Equal(t, 2, solution.Metadata.ScheduledStudents)
}

// Scenario D — impossible, both modes.
func TestSolve_ScenarioD_Impossible(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: blockWeek(domain.Monday, 540, 60),
		Constraints:  studioConstraints(0, 0, 60, 60),
	}
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: blockWeek(domain.Tuesday, 600, 60)},
	}

	t.Run("partial mode", func(t *testing.T) {
		opts := engine.DefaultOptions()
		opts.PartialSolutionsAllowed = true
		solution, err := engine.Solve(context.Background(), teacher, students, opts, nil)
		require.NoError(t, err)
		assert.Empty(t, solution.Assignments)
		assert.Equal(t, []string{"s1"}, solution.Unscheduled)
	})

	t.Run("strict mode", func(t *testing.T) {
		opts := engine.DefaultOptions()
		opts.PartialSolutionsAllowed = false
		solution, err := engine.Solve(context.Background(), teacher, students, opts, nil)
		require.Error(t, err)
		assert.True(t, engine.IsUnschedulable(err))
		assert.Contains(t, solution.Unscheduled, "s1")
	})
}

// Scenario E — back-to-back preference.
func TestSolve_ScenarioE_BackToBackPreference(t *testing.T) {
	avail := blockWeek(domain.Monday, 540, 240)

	t.Run("maximize", func(t *testing.T) {
		teacher := domain.TeacherConfig{
			Person:       person("teacher"),
			Availability: avail,
			Constraints: domain.SchedulingConstraints{
				MinLessonDuration:    60,
				MaxLessonDuration:    60,
				BackToBackPreference: domain.PreferMaximize,
			},
		}
		students := []domain.StudentConfig{
			{Person: person("s1"), PreferredDuration: 60, Availability: avail},
			{Person: person("s2"), PreferredDuration: 60, Availability: avail},
		}
		opts := engine.DefaultOptions()
		opts.EnableOptimizations = true
		solution, err := engine.Solve(context.Background(), teacher, students, opts, nil)
		require.NoError(t, err)
		require.Len(t, solution.Assignments, 2)
		// Contiguous: the gap between the two 60-minute lessons is zero.
		gap := solution.Assignments[1].StartMinute - solution.Assignments[0].Interval().End()
		assert.Equal(t, 0, gap, "maximize preference should pack lessons back-to-back")
	})

	t.Run("minimize", func(t *testing.T) {
		teacher := domain.TeacherConfig{
			Person:       person("teacher"),
			Availability: avail,
			Constraints: domain.SchedulingConstraints{
				MinLessonDuration:    60,
				MaxLessonDuration:    60,
				BackToBackPreference: domain.PreferMinimize,
			},
		}
		students := []domain.StudentConfig{
			{Person: person("s1"), PreferredDuration: 60, Availability: avail},
			{Person: person("s2"), PreferredDuration: 60, Availability: avail},
		}
		opts := engine.DefaultOptions()
		opts.EnableOptimizations = true
		solution, err := engine.Solve(context.Background(), teacher, students, opts, nil)
		require.NoError(t, err)
		require.Len(t, solution.Assignments, 2)
		gap := solution.Assignments[1].StartMinute - solution.Assignments[0].Interval().End()
		assert.Greater(t, gap, 0, "minimize preference should maximize the gap within available space")
	})
}

// Scenario F — deterministic tie-break.
func TestSolve_ScenarioF_DeterministicTieBreak(t *testing.T) {
	avail := blockWeek(domain.Monday, 540, 60)
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: avail,
		Constraints: domain.SchedulingConstraints{
			MinLessonDuration: 60,
			MaxLessonDuration: 60,
		},
	}
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: avail},
		{Person: person("s2"), PreferredDuration: 60, Availability: avail},
	}
	opts := engine.DefaultOptions()
	opts.RandomSeed = 42

	first, err1 := engine.Solve(context.Background(), teacher, students, opts, nil)
	second, err2 := engine.Solve(context.Background(), teacher, students, opts, nil)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Unscheduled, second.Unscheduled)
}

// Boundary 9 — zero students.
func TestSolve_Boundary_ZeroStudents(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: blockWeek(domain.Monday, 540, 60),
		Constraints:  studioConstraints(0, 0, 30, 60),
	}
	solution, err := engine.Solve(context.Background(), teacher, nil, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Empty(t, solution.Assignments)
	assert.Empty(t, solution.Unscheduled)
}

// Boundary 10 — teacher availability empty.
func TestSolve_Boundary_TeacherUnavailable(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:      person("teacher"),
		Constraints: studioConstraints(0, 0, 30, 60),
	}
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 30, Availability: blockWeek(domain.Monday, 540, 60)},
	}
	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, solution.Unscheduled)
}

// Boundary 11 — single student, block bigger than preferred duration.
func TestSolve_Boundary_SingleStudentGridAligned(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: blockWeek(domain.Monday, 540, 180),
		Constraints:  studioConstraints(0, 0, 30, 60),
	}
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 45, Availability: blockWeek(domain.Monday, 540, 180)},
	}
	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	require.Len(t, solution.Assignments, 1)
	assert.Equal(t, 0, solution.Assignments[0].StartMinute%15)
}

// Boundary 12 — two students, identical single-slot domain.
func TestSolve_Boundary_IdenticalSingleSlotDomain(t *testing.T) {
	avail := blockWeek(domain.Monday, 540, 60)
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: avail,
		Constraints:  studioConstraints(0, 0, 60, 60),
	}
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: avail},
		{Person: person("s2"), PreferredDuration: 60, Availability: avail},
	}
	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Len(t, solution.Assignments, 1)
	assert.Len(t, solution.Unscheduled, 1)
}

// Invariant 5 — scheduledStudents + |unscheduled| = totalStudents.
func TestSolve_Invariant_StudentCountsBalance(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: blockWeek(domain.Monday, 540, 120),
		Constraints:  studioConstraints(0, 0, 60, 60),
	}
	avail := blockWeek(domain.Monday, 540, 120)
	students := []domain.StudentConfig{
		{Person: person("s1"), PreferredDuration: 60, Availability: avail},
		{Person: person("s2"), PreferredDuration: 60, Availability: avail},
		{Person: person("s3"), PreferredDuration: 60, Availability: avail},
	}
	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, solution.Metadata.TotalStudents, solution.Metadata.ScheduledStudents+len(solution.Unscheduled))
}

// Invariant 2 — no overlap.
func TestSolve_Invariant_NoOverlap(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person:       person("teacher"),
		Availability: blockWeek(domain.Monday, 540, 240),
		Constraints:  studioConstraints(0, 0, 45, 45),
	}
	avail := blockWeek(domain.Monday, 540, 240)
	students := make([]domain.StudentConfig, 0, 5)
	for i := 0; i < 5; i++ {
		students = append(students, domain.StudentConfig{Person: person(string(rune('a' + i))), PreferredDuration: 45, Availability: avail})
	}
	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)

	for i := range solution.Assignments {
		for j := range solution.Assignments {
			if i == j {
				continue
			}
			a, b := solution.Assignments[i], solution.Assignments[j]
			if a.DayOfWeek != b.DayOfWeek {
				continue
			}
			assert.False(t, a.Interval().Overlaps(b.Interval()), "assignments %+v and %+v overlap", a, b)
		}
	}
}

func TestSolve_InvalidInput_NonCanonicalAvailability(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person: person("teacher"),
		Availability: domain.WeekSchedule{
			Days: func() [domain.DaysPerWeek]domain.DaySchedule {
				var days [domain.DaysPerWeek]domain.DaySchedule
				days[domain.Monday] = domain.DaySchedule{Blocks: []domain.Interval{{Start: 600, Duration: 60}, {Start: 540, Duration: 90}}}
				return days
			}(),
		},
		Constraints: studioConstraints(0, 0, 30, 60),
	}
	_, err := engine.Solve(context.Background(), teacher, nil, engine.DefaultOptions(), nil)
	require.Error(t, err)
	assert.True(t, engine.IsInvalidInput(err))
}

func TestSolve_Output_SortedAssignments(t *testing.T) {
	teacher := domain.TeacherConfig{
		Person: person("teacher"),
		Availability: domain.NewWeekSchedule("UTC", [domain.DaysPerWeek][]domain.Interval{
			domain.Tuesday: {{Start: 540, Duration: 120}},
			domain.Monday:  {{Start: 540, Duration: 120}},
		}),
		Constraints: studioConstraints(0, 0, 60, 60),
	}
	students := []domain.StudentConfig{
		{Person: person("z"), PreferredDuration: 60, Availability: domain.NewWeekSchedule("UTC", [domain.DaysPerWeek][]domain.Interval{domain.Monday: {{Start: 540, Duration: 120}}})},
		{Person: person("a"), PreferredDuration: 60, Availability: domain.NewWeekSchedule("UTC", [domain.DaysPerWeek][]domain.Interval{domain.Tuesday: {{Start: 540, Duration: 120}}})},
	}
	solution, err := engine.Solve(context.Background(), teacher, students, engine.DefaultOptions(), nil)
	require.NoError(t, err)
	require.Len(t, solution.Assignments, 2)
	assert.Equal(t, domain.Monday, solution.Assignments[0].DayOfWeek)
	assert.Equal(t, domain.Tuesday, solution.Assignments[1].DayOfWeek)
}
