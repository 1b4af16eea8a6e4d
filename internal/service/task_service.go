package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/domain/selection"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/platform/printing"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// ErrSuperadminCannotOwnTasks is returned when the config-defined
// superadmin attempts an operation that requires a users row, such as
// creating a task. The superadmin exists for bootstrap and
// administration; task ownership needs a real account.
var ErrSuperadminCannotOwnTasks = fmt.Errorf(
	"%w: superadmin has no user account and cannot own tasks",
	domain.ErrValidation,
)

// TaskListParams describes a caller-facing task listing request. The
// service applies the principal's visibility on top of these.
type TaskListParams struct {
	Skip            int
	Limit           int
	IncludeArchived bool
	State           *domain.TaskState
	Query           string

	// IncludeCreated controls whether a restricted principal also sees
	// tasks they created but are not assigned to. Nil means true.
	IncludeCreated *bool
}

// DueSoonWindow is how far ahead DueTasks looks.
const DueSoonWindow = 24 * time.Hour

// TaskService provides task lifecycle and query operations. Every method
// enforces the principal's visibility: restricted principals only ever
// observe tasks assigned to them, open to anyone, or created by them,
// and an invisible task is indistinguishable from a missing one.
type TaskService interface {
	// CreateTask creates a task owned by the principal.
	CreateTask(ctx context.Context, principal auth.Principal, params domain.NewTaskParams) (*domain.Task, error)

	// GetTask retrieves a task visible to the principal.
	GetTask(ctx context.Context, principal auth.Principal, id uuid.UUID) (*domain.Task, error)

	// ListTasks returns the tasks visible to the principal. Archived tasks
	// are excluded unless IncludeArchived is set or an explicit State
	// filter names them.
	ListTasks(ctx context.Context, principal auth.Principal, params TaskListParams) ([]*domain.Task, error)

	// RandomTask picks one actionable task (todo or in_progress) visible
	// to the principal, weighted by due-date urgency.
	RandomTask(ctx context.Context, principal auth.Principal) (*domain.Task, error)

	// DueTasks returns the tasks visible to the principal that are overdue
	// or due within DueSoonWindow.
	DueTasks(ctx context.Context, principal auth.Principal) ([]*domain.Task, error)

	// UpdateTask applies a partial field update to a task.
	UpdateTask(ctx context.Context, principal auth.Principal, id uuid.UUID, update *domain.TaskUpdate) (*domain.Task, error)

	// StartTask transitions a todo task to in_progress.
	StartTask(ctx context.Context, principal auth.Principal, id uuid.UUID) (*domain.Task, error)

	// CompleteTask transitions an in_progress task to done.
	CompleteTask(ctx context.Context, principal auth.Principal, id uuid.UUID) (*domain.Task, error)

	// ArchiveTask transitions a todo or done task to archived.
	ArchiveTask(ctx context.Context, principal auth.Principal, id uuid.UUID) (*domain.Task, error)

	// ResetTask returns a non-todo task to todo, clearing its progress
	// timestamps.
	ResetTask(ctx context.Context, principal auth.Principal, id uuid.UUID) (*domain.Task, error)

	// PrintTask renders a task on the configured printer. The task's state
	// is not changed.
	PrintTask(ctx context.Context, principal auth.Principal, id uuid.UUID) error
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	tasks        store.TaskStore
	users        store.UserStore
	printer      printing.Printer
	printTimeout time.Duration
	logger       *slog.Logger
	timeFunc     func() time.Time
	rnd          selection.RandSource
}

// TaskServiceOption customizes a TaskService at construction.
type TaskServiceOption func(*taskServiceImpl)

// WithTimeFunc overrides the clock, for testing.
func WithTimeFunc(f func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) { s.timeFunc = f }
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	users store.UserStore,
	printer printing.Printer,
	printTimeout time.Duration,
	rnd selection.RandSource,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if users == nil {
		return nil, fmt.Errorf("user store cannot be nil")
	}
	if printer == nil {
		return nil, fmt.Errorf("printer cannot be nil")
	}
	if rnd == nil {
		return nil, fmt.Errorf("random source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		tasks:        tasks,
		users:        users,
		printer:      printer,
		printTimeout: printTimeout,
		logger:       logger.With(slog.String("component", "task_service")),
		timeFunc:     time.Now,
		rnd:          rnd,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateTask implements TaskService.CreateTask.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	principal auth.Principal,
	params domain.NewTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if principal.UserID == uuid.Nil {
		return nil, ErrSuperadminCannotOwnTasks
	}
	params.CreatedBy = principal.UserID

	task, err := domain.NewTask(params)
	if err != nil {
		return nil, err
	}

	if err := s.checkReferencedUsers(ctx, task); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("title", task.Title))
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by", task.CreatedBy.String()))
	return task, nil
}

// GetTask implements TaskService.GetTask.
func (s *taskServiceImpl) GetTask(
	ctx context.Context,
	principal auth.Principal,
	id uuid.UUID,
) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canSee(principal, task) {
		// Invisible tasks are reported as missing so existence does not leak.
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	principal auth.Principal,
	params TaskListParams,
) ([]*domain.Task, error) {
	filter := store.TaskFilter{
		Skip:            params.Skip,
		Limit:           params.Limit,
		IncludeArchived: params.IncludeArchived,
		State:           params.State,
		Query:           params.Query,
	}
	if !principal.Unrestricted() {
		userID := principal.UserID
		filter.Principal = &userID
		filter.IncludeCreated = params.IncludeCreated == nil || *params.IncludeCreated
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// DueTasks implements TaskService.DueTasks.
func (s *taskServiceImpl) DueTasks(
	ctx context.Context,
	principal auth.Principal,
) ([]*domain.Task, error) {
	horizon := s.timeFunc().UTC().Add(DueSoonWindow)
	filter := store.TaskFilter{
		DueBefore: &horizon,
	}
	if !principal.Unrestricted() {
		userID := principal.UserID
		filter.Principal = &userID
		filter.IncludeCreated = true
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, NewTaskServiceError("due_tasks", "failed to list due tasks", err)
	}
	return tasks, nil
}

// RandomTask implements TaskService.RandomTask.
func (s *taskServiceImpl) RandomTask(
	ctx context.Context,
	principal auth.Principal,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter := store.TaskFilter{
		States: []domain.TaskState{domain.TaskStateTodo, domain.TaskStateInProgress},
	}
	if !principal.Unrestricted() {
		userID := principal.UserID
		filter.Principal = &userID
		filter.IncludeCreated = true
	}

	candidates, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, NewTaskServiceError("random_task", "failed to list candidates", err)
	}

	task, ok := selection.Pick(candidates, s.timeFunc(), s.rnd)
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	log.Debug("random task selected",
		slog.String("task_id", task.ID.String()),
		slog.Int("candidate_count", len(candidates)))
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	principal auth.Principal,
	id uuid.UUID,
	update *domain.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.GetTask(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if err := task.Apply(update, s.timeFunc()); err != nil {
		return nil, err
	}

	if update.TouchesAssignment() {
		if err := s.checkReferencedUsers(ctx, task); err != nil {
			return nil, err
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, NewTaskServiceError("update_task", "failed to save task", err)
	}
	return task, nil
}

// StartTask implements TaskService.StartTask.
func (s *taskServiceImpl) StartTask(
	ctx context.Context,
	principal auth.Principal,
	id uuid.UUID,
) (*domain.Task, error) {
	return s.transition(ctx, principal, id, "start", (*domain.Task).Start)
}

// CompleteTask implements TaskService.CompleteTask.
func (s *taskServiceImpl) CompleteTask(
	ctx context.Context,
	principal auth.Principal,
	id uuid.UUID,
) (*domain.Task, error) {
	return s.transition(ctx, principal, id, "complete", (*domain.Task).Complete)
}

// ArchiveTask implements TaskService.ArchiveTask.
func (s *taskServiceImpl) ArchiveTask(
	ctx context.Context,
	principal auth.Principal,
	id uuid.UUID,
) (*domain.Task, error) {
	return s.transition(ctx, principal, id, "archive", (*domain.Task).Archive)
}

// ResetTask implements TaskService.ResetTask.
func (s *taskServiceImpl) ResetTask(
	ctx context.Context,
	principal auth.Principal,
	id uuid.UUID,
) (*domain.Task, error) {
	return s.transition(ctx, principal, id, "reset", (*domain.Task).ResetToTodo)
}

// transition re-fetches the task, applies the domain transition, and
// persists the result. Illegal transitions surface as *domain.StateError
// without touching the store.
func (s *taskServiceImpl) transition(
	ctx context.Context,
	principal auth.Principal,
	id uuid.UUID,
	op string,
	apply func(*domain.Task, time.Time) error,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.GetTask(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if err := apply(task, s.timeFunc()); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		log.Error("failed to persist task transition",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("operation", op))
		return nil, NewTaskServiceError(op, "failed to save task", err)
	}

	log.Info("task transition applied",
		slog.String("task_id", id.String()),
		slog.String("operation", op),
		slog.String("state", string(task.State)))
	return task, nil
}

// PrintTask implements TaskService.PrintTask.
func (s *taskServiceImpl) PrintTask(
	ctx context.Context,
	principal auth.Principal,
	id uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.GetTask(ctx, principal, id)
	if err != nil {
		return err
	}

	printCtx := ctx
	if s.printTimeout > 0 {
		var cancel context.CancelFunc
		printCtx, cancel = context.WithTimeout(ctx, s.printTimeout)
		defer cancel()
	}

	if err := s.printer.Print(printCtx, task); err != nil {
		log.Error("failed to print task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	log.Info("task printed", slog.String("task_id", id.String()))
	return nil
}

// canSee applies the visibility rules for a single task.
func (s *taskServiceImpl) canSee(principal auth.Principal, task *domain.Task) bool {
	if principal.Unrestricted() {
		return true
	}
	return task.VisibleTo(principal.UserID, true)
}

// checkReferencedUsers verifies that every user referenced by the task's
// assignment fields exists, so assignments never dangle.
func (s *taskServiceImpl) checkReferencedUsers(ctx context.Context, task *domain.Task) error {
	var ids []uuid.UUID
	if task.AssignedTo != nil {
		ids = append(ids, *task.AssignedTo)
	}
	ids = append(ids, task.AssignedUserIDs...)

	for _, id := range ids {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return fmt.Errorf("%w: assigned user %s does not exist",
					domain.ErrValidation, id)
			}
			return NewTaskServiceError("check_assignees", "failed to look up user", err)
		}
	}
	return nil
}
