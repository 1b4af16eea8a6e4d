package maintenance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/maintenance"
	"github.com/taskdeck/taskdeck-api/internal/mocks"
)

var sweepTime = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func testConfig() maintenance.Config {
	return maintenance.Config{
		Interval:     time.Hour,
		Retention:    7 * 24 * time.Hour,
		Lookahead:    6 * time.Hour,
		PrintTimeout: time.Second,
	}
}

func newJob(
	tasks *mocks.MemoryTaskStore,
	printer *mocks.RecordingPrinter,
) *maintenance.Job {
	job := maintenance.NewJob(tasks, printer, testConfig(), nil)
	job.SetTimeFunc(func() time.Time { return sweepTime })
	return job
}

func addTask(
	t *testing.T,
	tasks *mocks.MemoryTaskStore,
	mutate func(*domain.Task),
) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(domain.NewTaskParams{
		Title:          "sweep target",
		Description:    "desc",
		CreatedBy:      uuid.New(),
		AssignmentType: domain.AssignmentAny,
	})
	require.NoError(t, err)
	if mutate != nil {
		mutate(task)
	}
	require.NoError(t, tasks.Create(context.Background(), task))
	return task
}

func TestArchivePass(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("archives done tasks older than retention", func(t *testing.T) {
		t.Parallel()
		tasks := mocks.NewMemoryTaskStore()
		printer := mocks.NewRecordingPrinter()

		old := sweepTime.Add(-8 * 24 * time.Hour)
		stale := addTask(t, tasks, func(task *domain.Task) {
			task.State = domain.TaskStateDone
			task.CompletedAt = &old
		})

		recent := sweepTime.Add(-time.Hour)
		fresh := addTask(t, tasks, func(task *domain.Task) {
			task.State = domain.TaskStateDone
			task.CompletedAt = &recent
		})

		require.NoError(t, newJob(tasks, printer).RunOnce(ctx))

		got, err := tasks.GetByID(ctx, stale.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStateArchived, got.State)

		got, err = tasks.GetByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStateDone, got.State)
	})

	t.Run("ignores non-done states", func(t *testing.T) {
		t.Parallel()
		tasks := mocks.NewMemoryTaskStore()
		printer := mocks.NewRecordingPrinter()

		todo := addTask(t, tasks, nil)
		inProgress := addTask(t, tasks, func(task *domain.Task) {
			old := sweepTime.Add(-30 * 24 * time.Hour)
			task.State = domain.TaskStateInProgress
			task.StartedAt = &old
		})

		require.NoError(t, newJob(tasks, printer).RunOnce(ctx))

		got, err := tasks.GetByID(ctx, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStateTodo, got.State)

		got, err = tasks.GetByID(ctx, inProgress.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStateInProgress, got.State)
	})
}

func TestDueTaskPass(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("prints and starts overdue and soon-due todos", func(t *testing.T) {
		t.Parallel()
		tasks := mocks.NewMemoryTaskStore()
		printer := mocks.NewRecordingPrinter()

		overdueAt := sweepTime.Add(-time.Hour)
		overdue := addTask(t, tasks, func(task *domain.Task) {
			task.DueDate = &overdueAt
		})

		soonAt := sweepTime.Add(3 * time.Hour)
		soon := addTask(t, tasks, func(task *domain.Task) {
			task.DueDate = &soonAt
		})

		laterAt := sweepTime.Add(48 * time.Hour)
		later := addTask(t, tasks, func(task *domain.Task) {
			task.DueDate = &laterAt
		})

		undated := addTask(t, tasks, nil)

		require.NoError(t, newJob(tasks, printer).RunOnce(ctx))

		for _, id := range []uuid.UUID{overdue.ID, soon.ID} {
			got, err := tasks.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, domain.TaskStateInProgress, got.State)
			require.NotNil(t, got.StartedAt)
			assert.True(t, got.StartedAt.Equal(sweepTime))
		}
		assert.ElementsMatch(t, []uuid.UUID{overdue.ID, soon.ID}, printer.Printed())

		for _, id := range []uuid.UUID{later.ID, undated.ID} {
			got, err := tasks.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, domain.TaskStateTodo, got.State)
		}
	})

	t.Run("in_progress tasks are not re-printed", func(t *testing.T) {
		t.Parallel()
		tasks := mocks.NewMemoryTaskStore()
		printer := mocks.NewRecordingPrinter()

		overdueAt := sweepTime.Add(-time.Hour)
		addTask(t, tasks, func(task *domain.Task) {
			started := sweepTime.Add(-2 * time.Hour)
			task.State = domain.TaskStateInProgress
			task.StartedAt = &started
			task.DueDate = &overdueAt
		})

		require.NoError(t, newJob(tasks, printer).RunOnce(ctx))
		assert.Empty(t, printer.Printed())
	})

	t.Run("user transition during print is not overwritten", func(t *testing.T) {
		t.Parallel()
		tasks := mocks.NewMemoryTaskStore()
		printer := mocks.NewRecordingPrinter()

		overdueAt := sweepTime.Add(-time.Hour)
		task := addTask(t, tasks, func(task *domain.Task) {
			task.DueDate = &overdueAt
		})

		// While the receipt is still printing, the user starts and
		// finishes the task. The sweep must respect the persisted state
		// after the print returns, not its pre-print listing snapshot.
		doneAt := sweepTime.Add(time.Minute)
		printer.PrintFunc = func(ctx context.Context, printed *domain.Task) error {
			current, err := tasks.GetByID(ctx, printed.ID)
			if err != nil {
				return err
			}
			if err := current.Start(sweepTime); err != nil {
				return err
			}
			if err := current.Complete(doneAt); err != nil {
				return err
			}
			return tasks.Update(ctx, current)
		}

		require.NoError(t, newJob(tasks, printer).RunOnce(ctx))

		got, err := tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStateDone, got.State)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(doneAt))
	})

	t.Run("print failure leaves task untouched", func(t *testing.T) {
		t.Parallel()
		tasks := mocks.NewMemoryTaskStore()
		printer := mocks.NewRecordingPrinter()
		printer.Err = errors.New("device unavailable")

		overdueAt := sweepTime.Add(-time.Hour)
		task := addTask(t, tasks, func(task *domain.Task) {
			task.DueDate = &overdueAt
		})

		require.NoError(t, newJob(tasks, printer).RunOnce(ctx))

		got, err := tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStateTodo, got.State)
		assert.Nil(t, got.StartedAt)
	})
}

func TestPassOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// A done task past retention whose due date is also inside the
	// lookahead window must be archived, never printed: the archive pass
	// completes before the due-task pass begins, and the due-task pass
	// only considers todos.
	tasks := mocks.NewMemoryTaskStore()
	printer := mocks.NewRecordingPrinter()

	completedAt := sweepTime.Add(-8 * 24 * time.Hour)
	dueAt := sweepTime.Add(time.Hour)
	task := addTask(t, tasks, func(task *domain.Task) {
		task.State = domain.TaskStateDone
		task.CompletedAt = &completedAt
		task.DueDate = &dueAt
	})

	require.NoError(t, newJob(tasks, printer).RunOnce(ctx))

	got, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateArchived, got.State)
	assert.Empty(t, printer.Printed())
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	tasks := mocks.NewMemoryTaskStore()
	printer := mocks.NewRecordingPrinter()

	job := maintenance.NewJob(tasks, printer, maintenance.Config{
		Interval:     time.Hour, // never fires during the test
		Retention:    time.Hour,
		Lookahead:    time.Hour,
		PrintTimeout: time.Second,
	}, nil)

	job.Start()
	job.Stop() // must return promptly without a tick ever firing
}
