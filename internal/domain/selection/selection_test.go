package selection_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/domain/selection"
)

// fixedSource returns a predetermined sequence of draws.
type fixedSource struct {
	draws []int64
	i     int
}

func (s *fixedSource) Int63n(n int64) int64 {
	d := s.draws[s.i%len(s.draws)]
	s.i++
	return d % n
}

func taskDueIn(t *testing.T, offset time.Duration, now time.Time) *domain.Task {
	t.Helper()
	due := now.Add(offset)
	task, err := domain.NewTask(domain.NewTaskParams{
		Title:          "task",
		Description:    "desc",
		DueDate:        &due,
		CreatedBy:      uuid.New(),
		AssignmentType: domain.AssignmentAny,
	})
	require.NoError(t, err)
	return task
}

func taskNoDue(t *testing.T) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.NewTaskParams{
		Title:          "task",
		Description:    "desc",
		CreatedBy:      uuid.New(),
		AssignmentType: domain.AssignmentAny,
	})
	require.NoError(t, err)
	return task
}

func TestWeight(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset *time.Duration
		want   int64
	}{
		{name: "no due date", offset: nil, want: 1},
		{name: "overdue", offset: dur(-time.Hour), want: 1000},
		{name: "due exactly now", offset: dur(0), want: 1000},
		{name: "due in 12h", offset: dur(12 * time.Hour), want: 500},
		{name: "due in 36h", offset: dur(36 * time.Hour), want: 300},
		{name: "due in 60h", offset: dur(60 * time.Hour), want: 200},
		{name: "due in 5 days", offset: dur(5 * 24 * time.Hour), want: 100},
		{name: "due in 10 days", offset: dur(10 * 24 * time.Hour), want: 50},
		{name: "due in 20 days", offset: dur(20 * 24 * time.Hour), want: 20},
		{name: "due in 60 days", offset: dur(60 * 24 * time.Hour), want: 5},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var task *domain.Task
			if tc.offset == nil {
				task = taskNoDue(t)
			} else {
				task = taskDueIn(t, *tc.offset, now)
			}
			assert.Equal(t, tc.want, selection.Weight(task, now))
		})
	}
}

func dur(d time.Duration) *time.Duration { return &d }

func TestPick(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	t.Run("empty candidate set", func(t *testing.T) {
		t.Parallel()

		task, ok := selection.Pick(nil, now, &fixedSource{draws: []int64{0}})
		assert.Nil(t, task)
		assert.False(t, ok)
	})

	t.Run("single candidate always picked", func(t *testing.T) {
		t.Parallel()

		only := taskNoDue(t)
		task, ok := selection.Pick([]*domain.Task{only}, now, &fixedSource{draws: []int64{0}})
		require.True(t, ok)
		assert.Equal(t, only.ID, task.ID)
	})

	t.Run("draw maps to cumulative weight band", func(t *testing.T) {
		t.Parallel()

		// Weights: overdue=1000, no due=1. Total 1001.
		overdue := taskDueIn(t, -time.Hour, now)
		undated := taskNoDue(t)
		candidates := []*domain.Task{overdue, undated}

		task, ok := selection.Pick(candidates, now, &fixedSource{draws: []int64{999}})
		require.True(t, ok)
		assert.Equal(t, overdue.ID, task.ID)

		task, ok = selection.Pick(candidates, now, &fixedSource{draws: []int64{1000}})
		require.True(t, ok)
		assert.Equal(t, undated.ID, task.ID)
	})

	t.Run("urgent tasks dominate over many draws", func(t *testing.T) {
		t.Parallel()

		overdue := taskDueIn(t, -time.Hour, now)
		distant := taskDueIn(t, 90*24*time.Hour, now)
		undated := taskNoDue(t)
		candidates := []*domain.Task{overdue, distant, undated}

		rnd := rand.New(rand.NewSource(42))
		counts := make(map[uuid.UUID]int)
		const iterations = 10000
		for i := 0; i < iterations; i++ {
			task, ok := selection.Pick(candidates, now, rnd)
			require.True(t, ok)
			counts[task.ID]++
		}

		// Expected proportions: 1000/1006, 5/1006, 1/1006.
		assert.Greater(t, counts[overdue.ID], 9500)
		assert.Greater(t, counts[overdue.ID], counts[distant.ID])
		assert.Greater(t, counts[distant.ID], counts[undated.ID])

		// Every candidate keeps a nonzero chance.
		assert.Positive(t, counts[undated.ID])
	})
}
