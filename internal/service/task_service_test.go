package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/mocks"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// fixedSource always draws the same value.
type fixedSource struct{ draw int64 }

func (s fixedSource) Int63n(n int64) int64 { return s.draw % n }

type fixture struct {
	tasks   *mocks.MemoryTaskStore
	users   *mocks.MemoryUserStore
	printer *mocks.RecordingPrinter
	svc     service.TaskService
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		tasks:   mocks.NewMemoryTaskStore(),
		users:   mocks.NewMemoryUserStore(),
		printer: mocks.NewRecordingPrinter(),
		now:     time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}

	svc, err := service.NewTaskService(
		f.tasks,
		f.users,
		f.printer,
		time.Second,
		fixedSource{draw: 0},
		nil,
		service.WithTimeFunc(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) addUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "hashed-password")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func principalFor(user *domain.User) auth.Principal {
	role := auth.RoleUser
	if user.IsAdmin {
		role = auth.RoleAdmin
	}
	return auth.Principal{UserID: user.ID, Subject: user.Email, Role: role}
}

func adminPrincipal() auth.Principal {
	return auth.Principal{UserID: uuid.New(), Subject: "admin@example.com", Role: auth.RoleAdmin}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates task owned by principal", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		creator := f.addUser(t, "creator@example.com")

		task, err := f.svc.CreateTask(ctx, principalFor(creator), domain.NewTaskParams{
			Title:          "Write report",
			Description:    "Quarterly numbers",
			AssignmentType: domain.AssignmentAny,
		})
		require.NoError(t, err)
		assert.Equal(t, creator.ID, task.CreatedBy)
		assert.Equal(t, domain.TaskStateTodo, task.State)

		stored, err := f.tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.Title, stored.Title)
	})

	t.Run("rejects superadmin as creator", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		superadmin := auth.Principal{
			UserID:  uuid.Nil,
			Subject: auth.SuperadminSubject,
			Role:    auth.RoleSuperadmin,
		}
		_, err := f.svc.CreateTask(ctx, superadmin, domain.NewTaskParams{
			Title:          "t",
			Description:    "d",
			AssignmentType: domain.AssignmentAny,
		})
		assert.ErrorIs(t, err, service.ErrSuperadminCannotOwnTasks)
	})

	t.Run("rejects assignment to nonexistent user", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		creator := f.addUser(t, "creator@example.com")
		ghost := uuid.New()

		_, err := f.svc.CreateTask(ctx, principalFor(creator), domain.NewTaskParams{
			Title:          "t",
			Description:    "d",
			AssignmentType: domain.AssignmentOne,
			AssignedTo:     &ghost,
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestTaskVisibility(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	creator := f.addUser(t, "creator@example.com")
	assignee := f.addUser(t, "assignee@example.com")
	stranger := f.addUser(t, "stranger@example.com")

	task, err := f.svc.CreateTask(ctx, principalFor(creator), domain.NewTaskParams{
		Title:          "Private work",
		Description:    "For one person",
		AssignmentType: domain.AssignmentOne,
		AssignedTo:     &assignee.ID,
	})
	require.NoError(t, err)

	t.Run("assignee sees the task", func(t *testing.T) {
		got, err := f.svc.GetTask(ctx, principalFor(assignee), task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	})

	t.Run("creator sees their own task", func(t *testing.T) {
		_, err := f.svc.GetTask(ctx, principalFor(creator), task.ID)
		assert.NoError(t, err)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		_, err := f.svc.GetTask(ctx, principalFor(stranger), task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		_, err := f.svc.GetTask(ctx, adminPrincipal(), task.ID)
		assert.NoError(t, err)
	})

	t.Run("list is filtered per principal", func(t *testing.T) {
		visible, err := f.svc.ListTasks(ctx, principalFor(stranger), service.TaskListParams{})
		require.NoError(t, err)
		assert.Empty(t, visible)

		visible, err = f.svc.ListTasks(ctx, principalFor(assignee), service.TaskListParams{})
		require.NoError(t, err)
		assert.Len(t, visible, 1)
	})

	t.Run("include_created=false hides created-but-unassigned tasks", func(t *testing.T) {
		includeCreated := false
		visible, err := f.svc.ListTasks(ctx, principalFor(creator), service.TaskListParams{
			IncludeCreated: &includeCreated,
		})
		require.NoError(t, err)
		assert.Empty(t, visible)

		// The assignee's view is unaffected by the flag.
		visible, err = f.svc.ListTasks(ctx, principalFor(assignee), service.TaskListParams{
			IncludeCreated: &includeCreated,
		})
		require.NoError(t, err)
		assert.Len(t, visible, 1)
	})
}

func TestDueTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	creator := f.addUser(t, "creator@example.com")
	other := f.addUser(t, "other@example.com")
	principal := principalFor(creator)

	addDue := func(title string, due *time.Time, p auth.Principal) *domain.Task {
		task, err := f.svc.CreateTask(ctx, p, domain.NewTaskParams{
			Title:          title,
			Description:    "d",
			DueDate:        due,
			AssignmentType: domain.AssignmentAny,
		})
		require.NoError(t, err)
		return task
	}

	overdueAt := f.now.Add(-time.Hour)
	soonAt := f.now.Add(2 * time.Hour)
	laterAt := f.now.Add(48 * time.Hour)

	overdue := addDue("overdue", &overdueAt, principal)
	soon := addDue("soon", &soonAt, principal)
	addDue("later", &laterAt, principal)
	addDue("undated", nil, principal)

	// Due but restricted to one other user: invisible to the creator's
	// due listing.
	dueAt := f.now.Add(time.Hour)
	_, err := f.svc.CreateTask(ctx, principalFor(other), domain.NewTaskParams{
		Title:          "someone else's",
		Description:    "d",
		DueDate:        &dueAt,
		AssignmentType: domain.AssignmentOne,
		AssignedTo:     &other.ID,
	})
	require.NoError(t, err)

	got, err := f.svc.DueTasks(ctx, principal)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(got))
	for _, task := range got {
		ids = append(ids, task.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{overdue.ID, soon.ID}, ids)
}

func TestTaskTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	creator := f.addUser(t, "creator@example.com")
	principal := principalFor(creator)

	task, err := f.svc.CreateTask(ctx, principal, domain.NewTaskParams{
		Title:          "Lifecycle",
		Description:    "walk the states",
		AssignmentType: domain.AssignmentAny,
	})
	require.NoError(t, err)

	started, err := f.svc.StartTask(ctx, principal, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateInProgress, started.State)
	require.NotNil(t, started.StartedAt)

	// Completing an in_progress task succeeds; the store reflects it.
	done, err := f.svc.CompleteTask(ctx, principal, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateDone, done.State)

	stored, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateDone, stored.State)

	// Illegal transition surfaces a StateError and changes nothing.
	_, err = f.svc.StartTask(ctx, principal, task.ID)
	var stateErr *domain.StateError
	require.ErrorAs(t, err, &stateErr)

	archived, err := f.svc.ArchiveTask(ctx, principal, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateArchived, archived.State)

	_, err = f.svc.ArchiveTask(ctx, principal, task.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyArchived)

	reset, err := f.svc.ResetTask(ctx, principal, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateTodo, reset.State)
	assert.Nil(t, reset.StartedAt)
	assert.Nil(t, reset.CompletedAt)
}

func TestRandomTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		creator := f.addUser(t, "creator@example.com")

		_, err := f.svc.RandomTask(ctx, principalFor(creator))
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("done and archived tasks are never candidates", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		creator := f.addUser(t, "creator@example.com")
		principal := principalFor(creator)

		task, err := f.svc.CreateTask(ctx, principal, domain.NewTaskParams{
			Title:          "only",
			Description:    "candidate",
			AssignmentType: domain.AssignmentAny,
		})
		require.NoError(t, err)

		picked, err := f.svc.RandomTask(ctx, principal)
		require.NoError(t, err)
		assert.Equal(t, task.ID, picked.ID)

		// In progress still counts.
		_, err = f.svc.StartTask(ctx, principal, task.ID)
		require.NoError(t, err)
		_, err = f.svc.RandomTask(ctx, principal)
		assert.NoError(t, err)

		// Done no longer does.
		_, err = f.svc.CompleteTask(ctx, principal, task.ID)
		require.NoError(t, err)
		_, err = f.svc.RandomTask(ctx, principal)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	creator := f.addUser(t, "creator@example.com")
	assignee := f.addUser(t, "assignee@example.com")
	principal := principalFor(creator)

	task, err := f.svc.CreateTask(ctx, principal, domain.NewTaskParams{
		Title:          "Original",
		Description:    "desc",
		AssignmentType: domain.AssignmentAny,
	})
	require.NoError(t, err)

	t.Run("reassignment to existing user", func(t *testing.T) {
		one := domain.AssignmentOne
		updated, err := f.svc.UpdateTask(ctx, principal, task.ID, &domain.TaskUpdate{
			AssignmentType: &one,
			AssignedTo:     &assignee.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.AssignmentOne, updated.AssignmentType)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, assignee.ID, *updated.AssignedTo)
	})

	t.Run("reassignment to missing user is rejected", func(t *testing.T) {
		ghost := uuid.New()
		one := domain.AssignmentOne
		_, err := f.svc.UpdateTask(ctx, principal, task.ID, &domain.TaskUpdate{
			AssignmentType: &one,
			AssignedTo:     &ghost,
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("state is not writable through updates", func(t *testing.T) {
		title := "Renamed"
		updated, err := f.svc.UpdateTask(ctx, principal, task.ID, &domain.TaskUpdate{
			Title: &title,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStateTodo, updated.State)
	})
}

func TestPrintTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	creator := f.addUser(t, "creator@example.com")
	principal := principalFor(creator)

	task, err := f.svc.CreateTask(ctx, principal, domain.NewTaskParams{
		Title:          "Print me",
		Description:    "receipt",
		AssignmentType: domain.AssignmentAny,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.PrintTask(ctx, principal, task.ID))
	assert.Equal(t, []uuid.UUID{task.ID}, f.printer.Printed())

	// Printing does not change state.
	stored, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateTodo, stored.State)
}
