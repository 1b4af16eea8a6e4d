package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskUpdate describes a partial update to a task's mutable fields.
// Nil fields are left untouched; the whole task is re-validated after the
// merge, so an update that breaks the assignment invariant is rejected
// without mutating the task. State and lifecycle timestamps are never
// touched by a field update.
type TaskUpdate struct {
	Title           *string
	Description     *string
	DueDate         *time.Time
	ClearDueDate    bool
	Reward          *string
	AssignmentType  *AssignmentType
	AssignedTo      *uuid.UUID
	AssignedUserIDs *[]uuid.UUID
}

// TouchesAssignment reports whether the update modifies any assignment
// field.
func (u *TaskUpdate) TouchesAssignment() bool {
	return u.AssignmentType != nil || u.AssignedTo != nil || u.AssignedUserIDs != nil
}

// Apply merges the update into the task and re-validates. On validation
// failure the task is left unchanged and the error is returned.
func (t *Task) Apply(u *TaskUpdate, now time.Time) error {
	merged := *t
	merged.AssignedUserIDs = append([]uuid.UUID(nil), t.AssignedUserIDs...)

	if u.Title != nil {
		merged.Title = *u.Title
	}
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.ClearDueDate {
		merged.DueDate = nil
	} else if u.DueDate != nil {
		merged.DueDate = normalizeTime(u.DueDate)
	}
	if u.Reward != nil {
		merged.Reward = u.Reward
	}
	if u.AssignmentType != nil {
		merged.AssignmentType = *u.AssignmentType
		// Changing the assignment policy discards stale assignment data
		// unless the update provides replacements.
		if u.AssignedTo == nil {
			merged.AssignedTo = nil
		}
		if u.AssignedUserIDs == nil {
			merged.AssignedUserIDs = nil
		}
	}
	if u.AssignedTo != nil {
		merged.AssignedTo = u.AssignedTo
	}
	if u.AssignedUserIDs != nil {
		merged.AssignedUserIDs = *u.AssignedUserIDs
	}

	if err := merged.Validate(); err != nil {
		return err
	}

	merged.UpdatedAt = now.UTC()
	*t = merged
	return nil
}
