package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// taskColumns is the canonical select list for task queries.
const taskColumns = `t.id, t.title, t.description, t.state, t.due_date, t.reward,
	t.created_at, t.updated_at, t.started_at, t.completed_at,
	t.created_by, t.assignment_type, t.assigned_to`

// PostgresTaskStore implements store.TaskStore on PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a PostgreSQL implementation of the
// TaskStore interface. The connection (or transaction) is managed by the
// caller. A nil logger falls back to the process default.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore.
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// inTransaction runs fn inside a transaction when the store holds a plain
// connection, and directly when it is already transaction-bound.
func (s *PostgresTaskStore) inTransaction(
	ctx context.Context,
	fn func(ts *PostgresTaskStore) error,
) error {
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return fn(&PostgresTaskStore{db: tx, logger: s.logger})
		})
	}
	return fn(s)
}

// Create implements store.TaskStore.Create. The task row and its
// assigned-user set are written atomically.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	return s.inTransaction(ctx, func(ts *PostgresTaskStore) error {
		query := `
			INSERT INTO tasks (id, title, description, state, due_date, reward,
				created_at, updated_at, started_at, completed_at,
				created_by, assignment_type, assigned_to)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		_, err := ts.db.ExecContext(
			ctx,
			query,
			task.ID,
			task.Title,
			task.Description,
			string(task.State),
			task.DueDate,
			task.Reward,
			task.CreatedAt,
			task.UpdatedAt,
			task.StartedAt,
			task.CompletedAt,
			task.CreatedBy,
			string(task.AssignmentType),
			task.AssignedTo,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: referenced user not found", store.ErrInvalidEntity)
			}
			log.Error("failed to create task",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return MapError(err)
		}

		if err := ts.insertAssignedSet(ctx, task.ID, task.AssignedUserIDs); err != nil {
			return err
		}

		log.Info("task created",
			slog.String("task_id", task.ID.String()),
			slog.String("assignment_type", string(task.AssignmentType)))
		return nil
	})
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks t WHERE t.id = $1`, taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %s", store.ErrTaskNotFound, id)
		}
		return nil, MapError(err)
	}

	if task.AssignmentType == domain.AssignmentSome {
		sets, err := s.loadAssignedSets(ctx, []uuid.UUID{task.ID})
		if err != nil {
			return nil, err
		}
		task.AssignedUserIDs = sets[task.ID]
	}
	return task, nil
}

// Update implements store.TaskStore.Update. The assigned-user set is
// replaced wholesale together with the row update.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	return s.inTransaction(ctx, func(ts *PostgresTaskStore) error {
		query := `
			UPDATE tasks
			SET title = $2, description = $3, state = $4, due_date = $5, reward = $6,
				updated_at = $7, started_at = $8, completed_at = $9,
				assignment_type = $10, assigned_to = $11
			WHERE id = $1
		`
		result, err := ts.db.ExecContext(
			ctx,
			query,
			task.ID,
			task.Title,
			task.Description,
			string(task.State),
			task.DueDate,
			task.Reward,
			task.UpdatedAt,
			task.StartedAt,
			task.CompletedAt,
			string(task.AssignmentType),
			task.AssignedTo,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: referenced user not found", store.ErrInvalidEntity)
			}
			return MapError(err)
		}
		if err := CheckRowsAffected(result, "task"); err != nil {
			return err
		}

		if _, err := ts.db.ExecContext(
			ctx,
			`DELETE FROM task_assigned_users WHERE task_id = $1`,
			task.ID,
		); err != nil {
			return MapError(err)
		}
		return ts.insertAssignedSet(ctx, task.ID, task.AssignedUserIDs)
	})
}

// List implements store.TaskStore.List. Visibility, state, archived
// exclusion, search, and due-window filtering are pushed into SQL; the
// assigned-set membership check uses the join table's primary key index.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) int {
		args = append(args, v)
		return len(args)
	}

	switch {
	case filter.State != nil:
		conds = append(conds, fmt.Sprintf("t.state = $%d", arg(string(*filter.State))))
	case len(filter.States) > 0:
		states := make([]string, len(filter.States))
		for i, st := range filter.States {
			states[i] = string(st)
		}
		conds = append(conds, fmt.Sprintf("t.state = ANY($%d)", arg(states)))
	case !filter.IncludeArchived:
		conds = append(conds, fmt.Sprintf("t.state <> '%s'", domain.TaskStateArchived))
	}

	if filter.Principal != nil {
		p := arg(*filter.Principal)
		created := ""
		if filter.IncludeCreated {
			created = fmt.Sprintf(" OR t.created_by = $%d", p)
		}
		conds = append(conds, fmt.Sprintf(`(
			t.assignment_type = 'any'
			OR (t.assignment_type = 'one' AND t.assigned_to = $%d)
			OR (t.assignment_type = 'some' AND EXISTS (
				SELECT 1 FROM task_assigned_users tau
				WHERE tau.task_id = t.id AND tau.user_id = $%d))%s)`, p, p, created))
	}

	if filter.Query != "" {
		q := arg("%" + strings.ToLower(filter.Query) + "%")
		conds = append(
			conds,
			fmt.Sprintf("(LOWER(t.title) LIKE $%d OR LOWER(t.description) LIKE $%d)", q, q),
		)
	}

	if filter.DueBefore != nil {
		conds = append(
			conds,
			fmt.Sprintf("t.due_date IS NOT NULL AND t.due_date <= $%d", arg(*filter.DueBefore)),
		)
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks t`, taskColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.due_date ASC NULLS LAST, t.created_at ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", arg(filter.Limit))
	}
	if filter.Skip > 0 {
		query += fmt.Sprintf(" OFFSET $%d", arg(filter.Skip))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	var (
		tasks   []*domain.Task
		someIDs []uuid.UUID
	)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
		if task.AssignmentType == domain.AssignmentSome {
			someIDs = append(someIDs, task.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	if len(someIDs) > 0 {
		sets, err := s.loadAssignedSets(ctx, someIDs)
		if err != nil {
			return nil, err
		}
		for _, task := range tasks {
			if task.AssignmentType == domain.AssignmentSome {
				task.AssignedUserIDs = sets[task.ID]
			}
		}
	}

	return tasks, nil
}

// insertAssignedSet writes the join rows for a task's assigned-user set.
func (s *PostgresTaskStore) insertAssignedSet(
	ctx context.Context,
	taskID uuid.UUID,
	userIDs []uuid.UUID,
) error {
	for _, userID := range userIDs {
		_, err := s.db.ExecContext(
			ctx,
			`INSERT INTO task_assigned_users (task_id, user_id) VALUES ($1, $2)`,
			taskID,
			userID,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return fmt.Errorf(
					"%w: assigned user %s not found",
					store.ErrInvalidEntity,
					userID,
				)
			}
			return MapError(err)
		}
	}
	return nil
}

// loadAssignedSets returns the assigned-user sets for the given task IDs.
func (s *PostgresTaskStore) loadAssignedSets(
	ctx context.Context,
	taskIDs []uuid.UUID,
) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT task_id, user_id FROM task_assigned_users WHERE task_id = ANY($1)`,
		taskIDs,
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	sets := make(map[uuid.UUID][]uuid.UUID, len(taskIDs))
	for rows.Next() {
		var taskID, userID uuid.UUID
		if err := rows.Scan(&taskID, &userID); err != nil {
			return nil, MapError(err)
		}
		sets[taskID] = append(sets[taskID], userID)
	}
	return sets, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row. The persisted state string is validated so
// arbitrary values never round-trip as valid states.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task           domain.Task
		state          string
		assignmentType string
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&state,
		&task.DueDate,
		&task.Reward,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.StartedAt,
		&task.CompletedAt,
		&task.CreatedBy,
		&assignmentType,
		&task.AssignedTo,
	)
	if err != nil {
		return nil, err
	}

	task.State = domain.TaskState(state)
	if !task.State.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidState, state)
	}
	task.AssignmentType = domain.AssignmentType(assignmentType)
	if !task.AssignmentType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAssignmentType, assignmentType)
	}

	// Timestamps are stored as timestamptz; normalize to UTC for
	// comparison stability.
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	if task.DueDate != nil {
		u := task.DueDate.UTC()
		task.DueDate = &u
	}
	if task.StartedAt != nil {
		u := task.StartedAt.UTC()
		task.StartedAt = &u
	}
	if task.CompletedAt != nil {
		u := task.CompletedAt.UTC()
		task.CompletedAt = &u
	}

	return &task, nil
}
