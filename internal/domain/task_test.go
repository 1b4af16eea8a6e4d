package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-api/internal/domain"
)

func validParams() domain.NewTaskParams {
	return domain.NewTaskParams{
		Title:          "Water the plants",
		Description:    "All of them, including the fern",
		CreatedBy:      uuid.New(),
		AssignmentType: domain.AssignmentAny,
	}
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("creates task in todo state", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask(validParams())
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, domain.TaskStateTodo, task.State)
		assert.Nil(t, task.StartedAt)
		assert.Nil(t, task.CompletedAt)
		assert.WithinDuration(t, time.Now().UTC(), task.CreatedAt, time.Minute)
	})

	t.Run("normalizes due date to UTC", func(t *testing.T) {
		t.Parallel()

		loc := time.FixedZone("UTC+5", 5*3600)
		due := time.Date(2026, 9, 1, 12, 0, 0, 0, loc)

		params := validParams()
		params.DueDate = &due

		task, err := domain.NewTask(params)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, task.DueDate.Location())
		assert.True(t, task.DueDate.Equal(due))
	})

	t.Run("rejects empty title", func(t *testing.T) {
		t.Parallel()

		params := validParams()
		params.Title = ""

		_, err := domain.NewTask(params)
		assert.ErrorIs(t, err, domain.ErrTitleEmpty)
	})
}

func TestTaskAssignmentInvariant(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name           string
		assignmentType domain.AssignmentType
		assignedTo     *uuid.UUID
		assignedSet    []uuid.UUID
		wantErr        error
	}{
		{
			name:           "any with no assignment data is valid",
			assignmentType: domain.AssignmentAny,
		},
		{
			name:           "any with assignee is rejected",
			assignmentType: domain.AssignmentAny,
			assignedTo:     &userID,
			wantErr:        domain.ErrAssigneeForbidden,
		},
		{
			name:           "any with assigned set is rejected",
			assignmentType: domain.AssignmentAny,
			assignedSet:    []uuid.UUID{userID},
			wantErr:        domain.ErrAssignedSetForbidden,
		},
		{
			name:           "one with assignee is valid",
			assignmentType: domain.AssignmentOne,
			assignedTo:     &userID,
		},
		{
			name:           "one without assignee is rejected",
			assignmentType: domain.AssignmentOne,
			wantErr:        domain.ErrAssigneeRequired,
		},
		{
			name:           "some with non-empty set is valid",
			assignmentType: domain.AssignmentSome,
			assignedSet:    []uuid.UUID{userID, uuid.New()},
		},
		{
			name:           "some with empty set is rejected",
			assignmentType: domain.AssignmentSome,
			wantErr:        domain.ErrAssignedSetRequired,
		},
		{
			name:           "some with assignee is rejected",
			assignmentType: domain.AssignmentSome,
			assignedTo:     &userID,
			assignedSet:    []uuid.UUID{userID},
			wantErr:        domain.ErrAssigneeForbidden,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			params := validParams()
			params.AssignmentType = tc.assignmentType
			params.AssignedTo = tc.assignedTo
			params.AssignedUserIDs = tc.assignedSet

			_, err := domain.NewTask(params)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	newTask := func(t *testing.T) *domain.Task {
		t.Helper()
		task, err := domain.NewTask(validParams())
		require.NoError(t, err)
		return task
	}

	t.Run("start then complete then archive", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		require.NoError(t, task.Start(now))
		assert.Equal(t, domain.TaskStateInProgress, task.State)
		require.NotNil(t, task.StartedAt)
		assert.True(t, task.StartedAt.Equal(now))

		later := now.Add(time.Hour)
		require.NoError(t, task.Complete(later))
		assert.Equal(t, domain.TaskStateDone, task.State)
		require.NotNil(t, task.CompletedAt)
		assert.True(t, task.CompletedAt.Equal(later))

		require.NoError(t, task.Archive(later.Add(time.Hour)))
		assert.Equal(t, domain.TaskStateArchived, task.State)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		require.NoError(t, task.Start(now))
		err := task.Start(now)

		var stateErr *domain.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "start", stateErr.Op)
		assert.Equal(t, domain.TaskStateInProgress, stateErr.Current)
	})

	t.Run("cannot complete from todo", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		err := task.Complete(now)
		var stateErr *domain.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, domain.TaskStateTodo, stateErr.Current)
	})

	t.Run("archive is legal from todo", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		require.NoError(t, task.Archive(now))
		assert.Equal(t, domain.TaskStateArchived, task.State)
	})

	t.Run("cannot archive in_progress", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		require.NoError(t, task.Start(now))
		err := task.Archive(now)

		var stateErr *domain.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.False(t, errors.Is(err, domain.ErrAlreadyArchived))
	})

	t.Run("archiving an archived task reports already archived", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		require.NoError(t, task.Archive(now))
		err := task.Archive(now)
		assert.ErrorIs(t, err, domain.ErrAlreadyArchived)
		assert.True(t, domain.IsStateError(err))
	})

	t.Run("reset clears progress timestamps", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		require.NoError(t, task.Start(now))
		require.NoError(t, task.Complete(now.Add(time.Hour)))
		require.NoError(t, task.ResetToTodo(now.Add(2*time.Hour)))

		assert.Equal(t, domain.TaskStateTodo, task.State)
		assert.Nil(t, task.StartedAt)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("reset is legal from archived", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		require.NoError(t, task.Archive(now))
		require.NoError(t, task.ResetToTodo(now.Add(time.Hour)))
		assert.Equal(t, domain.TaskStateTodo, task.State)
	})

	t.Run("cannot reset a todo task", func(t *testing.T) {
		t.Parallel()
		task := newTask(t)

		err := task.ResetToTodo(now)
		var stateErr *domain.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "reset", stateErr.Op)
	})
}

func TestTaskApply(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	t.Run("merges provided fields only", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask(validParams())
		require.NoError(t, err)
		originalDescription := task.Description

		title := "New title"
		require.NoError(t, task.Apply(&domain.TaskUpdate{Title: &title}, now))

		assert.Equal(t, "New title", task.Title)
		assert.Equal(t, originalDescription, task.Description)
		assert.True(t, task.UpdatedAt.Equal(now))
	})

	t.Run("failed validation leaves task unchanged", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask(validParams())
		require.NoError(t, err)

		one := domain.AssignmentOne
		err = task.Apply(&domain.TaskUpdate{AssignmentType: &one}, now)
		assert.ErrorIs(t, err, domain.ErrAssigneeRequired)
		assert.Equal(t, domain.AssignmentAny, task.AssignmentType)
	})

	t.Run("changing assignment type clears stale data", func(t *testing.T) {
		t.Parallel()

		assignee := uuid.New()
		params := validParams()
		params.AssignmentType = domain.AssignmentOne
		params.AssignedTo = &assignee

		task, err := domain.NewTask(params)
		require.NoError(t, err)

		any := domain.AssignmentAny
		require.NoError(t, task.Apply(&domain.TaskUpdate{AssignmentType: &any}, now))
		assert.Nil(t, task.AssignedTo)
		assert.Empty(t, task.AssignedUserIDs)
	})

	t.Run("clear due date", func(t *testing.T) {
		t.Parallel()

		due := now.Add(24 * time.Hour)
		params := validParams()
		params.DueDate = &due

		task, err := domain.NewTask(params)
		require.NoError(t, err)

		require.NoError(t, task.Apply(&domain.TaskUpdate{ClearDueDate: true}, now))
		assert.Nil(t, task.DueDate)
	})
}

func TestTaskVisibleTo(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	assignee := uuid.New()
	member := uuid.New()
	stranger := uuid.New()

	anyTask, err := domain.NewTask(domain.NewTaskParams{
		Title:          "open",
		Description:    "visible to all",
		CreatedBy:      creator,
		AssignmentType: domain.AssignmentAny,
	})
	require.NoError(t, err)

	oneTask, err := domain.NewTask(domain.NewTaskParams{
		Title:          "single",
		Description:    "one assignee",
		CreatedBy:      creator,
		AssignmentType: domain.AssignmentOne,
		AssignedTo:     &assignee,
	})
	require.NoError(t, err)

	someTask, err := domain.NewTask(domain.NewTaskParams{
		Title:           "group",
		Description:     "assigned set",
		CreatedBy:       creator,
		AssignmentType:  domain.AssignmentSome,
		AssignedUserIDs: []uuid.UUID{member},
	})
	require.NoError(t, err)

	assert.True(t, anyTask.VisibleTo(stranger, false))

	assert.True(t, oneTask.VisibleTo(assignee, false))
	assert.False(t, oneTask.VisibleTo(stranger, false))
	assert.False(t, oneTask.VisibleTo(creator, false))
	assert.True(t, oneTask.VisibleTo(creator, true))

	assert.True(t, someTask.VisibleTo(member, false))
	assert.False(t, someTask.VisibleTo(stranger, true))
	assert.True(t, someTask.VisibleTo(creator, true))
}
