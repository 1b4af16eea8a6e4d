package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskState represents the lifecycle state of a task. It is persisted as
// a string and validated on read; arbitrary strings are never accepted
// as valid states.
type TaskState string

// Task lifecycle states.
const (
	TaskStateTodo       TaskState = "todo"
	TaskStateInProgress TaskState = "in_progress"
	TaskStateDone       TaskState = "done"
	TaskStateArchived   TaskState = "archived"
)

// Valid reports whether s is a known task state.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateTodo, TaskStateInProgress, TaskStateDone, TaskStateArchived:
		return true
	}
	return false
}

// AssignmentType controls which users may see a task.
type AssignmentType string

// Assignment types.
const (
	// AssignmentAny makes the task visible to every user.
	AssignmentAny AssignmentType = "any"
	// AssignmentOne assigns the task to a single user.
	AssignmentOne AssignmentType = "one"
	// AssignmentSome assigns the task to a fixed set of users.
	AssignmentSome AssignmentType = "some"
)

// Valid reports whether a is a known assignment type.
func (a AssignmentType) Valid() bool {
	switch a {
	case AssignmentAny, AssignmentOne, AssignmentSome:
		return true
	}
	return false
}

// Task-specific validation errors.
var (
	ErrTaskIDEmpty      = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrTitleEmpty       = fmt.Errorf("%w: title cannot be empty", ErrValidation)
	ErrDescriptionEmpty = fmt.Errorf("%w: description cannot be empty", ErrValidation)
	ErrCreatorEmpty     = fmt.Errorf("%w: task creator cannot be empty", ErrValidation)

	ErrAssigneeRequired = fmt.Errorf(
		"%w: assignment type 'one' requires an assignee",
		ErrValidation,
	)
	ErrAssigneeForbidden = fmt.Errorf(
		"%w: assignee is only allowed with assignment type 'one'",
		ErrValidation,
	)
	ErrAssignedSetRequired = fmt.Errorf(
		"%w: assignment type 'some' requires a non-empty assigned set",
		ErrValidation,
	)
	ErrAssignedSetForbidden = fmt.Errorf(
		"%w: assigned set is only allowed with assignment type 'some'",
		ErrValidation,
	)
)

// Task is a unit of work tracked by the system. Its State field is
// mutated exclusively through the lifecycle methods below, which enforce
// the legal transitions.
type Task struct {
	ID              uuid.UUID      `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	State           TaskState      `json:"state"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	Reward          *string        `json:"reward,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CreatedBy       uuid.UUID      `json:"created_by"`
	AssignmentType  AssignmentType `json:"assignment_type"`
	AssignedTo      *uuid.UUID     `json:"assigned_to,omitempty"`
	AssignedUserIDs []uuid.UUID    `json:"assigned_user_ids,omitempty"`
}

// NewTaskParams holds the caller-supplied fields for task construction.
type NewTaskParams struct {
	Title           string
	Description     string
	DueDate         *time.Time
	Reward          *string
	CreatedBy       uuid.UUID
	AssignmentType  AssignmentType
	AssignedTo      *uuid.UUID
	AssignedUserIDs []uuid.UUID
}

// NewTask creates a task in the initial todo state. It generates a new
// UUID, sets UTC timestamps, and validates the result.
func NewTask(p NewTaskParams) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:              uuid.New(),
		Title:           p.Title,
		Description:     p.Description,
		State:           TaskStateTodo,
		DueDate:         normalizeTime(p.DueDate),
		Reward:          p.Reward,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       p.CreatedBy,
		AssignmentType:  p.AssignmentType,
		AssignedTo:      p.AssignedTo,
		AssignedUserIDs: p.AssignedUserIDs,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task's fields, including the assignment invariant:
// exactly one of {assignee set, assigned set non-empty, neither} holds,
// consistent with the assignment type.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.Title == "" {
		return ErrTitleEmpty
	}
	if t.Description == "" {
		return ErrDescriptionEmpty
	}
	if t.CreatedBy == uuid.Nil {
		return ErrCreatorEmpty
	}
	if !t.State.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, string(t.State))
	}
	if !t.AssignmentType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAssignmentType, string(t.AssignmentType))
	}

	switch t.AssignmentType {
	case AssignmentOne:
		if t.AssignedTo == nil || *t.AssignedTo == uuid.Nil {
			return ErrAssigneeRequired
		}
		if len(t.AssignedUserIDs) > 0 {
			return ErrAssignedSetForbidden
		}
	case AssignmentSome:
		if len(t.AssignedUserIDs) == 0 {
			return ErrAssignedSetRequired
		}
		if t.AssignedTo != nil {
			return ErrAssigneeForbidden
		}
	case AssignmentAny:
		if t.AssignedTo != nil {
			return ErrAssigneeForbidden
		}
		if len(t.AssignedUserIDs) > 0 {
			return ErrAssignedSetForbidden
		}
	}

	return nil
}

// Start transitions the task from todo to in_progress and records the
// start timestamp.
func (t *Task) Start(now time.Time) error {
	if t.State != TaskStateTodo {
		return &StateError{Op: "start", Current: t.State, Allowed: []TaskState{TaskStateTodo}}
	}
	ts := now.UTC()
	t.State = TaskStateInProgress
	t.StartedAt = &ts
	t.UpdatedAt = ts
	return nil
}

// Complete transitions the task from in_progress to done and records the
// completion timestamp. Completing requires having started.
func (t *Task) Complete(now time.Time) error {
	if t.State != TaskStateInProgress {
		return &StateError{
			Op:      "complete",
			Current: t.State,
			Allowed: []TaskState{TaskStateInProgress},
		}
	}
	ts := now.UTC()
	t.State = TaskStateDone
	t.CompletedAt = &ts
	t.UpdatedAt = ts
	return nil
}

// Archive transitions the task to archived. Legal from todo or done; an
// in_progress task must be completed or reset first, and archiving an
// archived task reports ErrAlreadyArchived.
func (t *Task) Archive(now time.Time) error {
	if t.State == TaskStateArchived {
		return ErrAlreadyArchived
	}
	if t.State != TaskStateTodo && t.State != TaskStateDone {
		return &StateError{
			Op:      "archive",
			Current: t.State,
			Allowed: []TaskState{TaskStateTodo, TaskStateDone},
		}
	}
	t.State = TaskStateArchived
	t.UpdatedAt = now.UTC()
	return nil
}

// ResetToTodo returns the task to the todo state from any non-todo state,
// clearing both progress timestamps.
func (t *Task) ResetToTodo(now time.Time) error {
	if t.State == TaskStateTodo {
		return &StateError{
			Op:      "reset",
			Current: t.State,
			Allowed: []TaskState{TaskStateInProgress, TaskStateDone, TaskStateArchived},
		}
	}
	t.State = TaskStateTodo
	t.StartedAt = nil
	t.CompletedAt = nil
	t.UpdatedAt = now.UTC()
	return nil
}

// VisibleTo reports whether the task is visible to the given user. A task
// is visible when its assignment type is "any", when the user is the
// single assignee, when the user is a member of the assigned set, or,
// with includeCreated, when the user created it. Unrestricted principals
// bypass this predicate entirely.
func (t *Task) VisibleTo(userID uuid.UUID, includeCreated bool) bool {
	if t.AssignmentType == AssignmentAny {
		return true
	}
	if t.AssignmentType == AssignmentOne && t.AssignedTo != nil && *t.AssignedTo == userID {
		return true
	}
	if t.AssignmentType == AssignmentSome {
		for _, id := range t.AssignedUserIDs {
			if id == userID {
				return true
			}
		}
	}
	return includeCreated && t.CreatedBy == userID
}

// normalizeTime converts an optional timestamp to UTC. Naive values
// arriving from clients are treated as UTC instants.
func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
