package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// TaskFilter describes a task listing query. The zero value lists every
// non-archived task.
type TaskFilter struct {
	// Skip and Limit paginate the result. A zero Limit means no limit.
	Skip  int
	Limit int

	// IncludeArchived includes archived tasks. An explicit State filter
	// overrides the default archived exclusion.
	IncludeArchived bool

	// State restricts the result to a single lifecycle state.
	State *domain.TaskState

	// States restricts the result to a set of lifecycle states. Used by
	// the maintenance job and random selection to fetch candidates.
	States []domain.TaskState

	// Principal restricts visibility to the given user per the assignment
	// rules. Nil means unrestricted (admin view).
	Principal *uuid.UUID

	// IncludeCreated extends a restricted principal's visibility to tasks
	// they created. Ignored when Principal is nil.
	IncludeCreated bool

	// Query filters by case-insensitive substring match on title or
	// description.
	Query string

	// DueBefore keeps only tasks with a due date at or before the given
	// instant.
	DueBefore *time.Time
}

// TaskStore defines the interface for task persistence. Results are
// ordered by due date ascending with tasks lacking a due date last, then
// by creation time.
type TaskStore interface {
	// Create saves a new task, including its assigned-user set.
	// Returns ErrInvalidEntity if a referenced user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task with its assigned-user set populated.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists the task's current field values, replacing the
	// assigned-user set. Returns ErrTaskNotFound if the task does not
	// exist.
	Update(ctx context.Context, task *domain.Task) error

	// List returns the tasks matching the filter. An empty result is not
	// an error.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// WithTx returns a TaskStore bound to the given transaction.
	WithTx(tx *sql.Tx) TaskStore
}
