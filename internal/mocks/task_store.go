// Package mocks provides in-memory store and printer implementations for
// tests.
package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// MemoryTaskStore is an in-memory store.TaskStore. It mirrors the SQL
// implementation's filtering and ordering semantics so service tests run
// without a database.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task

	// CreateErr, UpdateErr, and ListErr, when set, are returned by the
	// corresponding method to simulate store failures.
	CreateErr error
	UpdateErr error
	ListErr   error
}

var _ store.TaskStore = (*MemoryTaskStore)(nil)

// NewMemoryTaskStore creates an empty MemoryTaskStore.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

// Create implements store.TaskStore.
func (s *MemoryTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// GetByID implements store.TaskStore.
func (s *MemoryTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// Update implements store.TaskStore.
func (s *MemoryTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// List implements store.TaskStore.
func (s *MemoryTaskStore) List(
	ctx context.Context,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Task
	for _, task := range s.tasks {
		if !matchesFilter(task, filter) {
			continue
		}
		result = append(result, cloneTask(task))
	}

	// Due date ascending with missing due dates last, then creation time.
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case a.DueDate.Equal(*b.DueDate):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(result) {
			return nil, nil
		}
		result = result[filter.Skip:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// WithTx implements store.TaskStore. The in-memory store has no
// transactions; it returns itself.
func (s *MemoryTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return s
}

func matchesFilter(task *domain.Task, filter store.TaskFilter) bool {
	switch {
	case filter.State != nil:
		if task.State != *filter.State {
			return false
		}
	case len(filter.States) > 0:
		found := false
		for _, state := range filter.States {
			if task.State == state {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	case !filter.IncludeArchived:
		if task.State == domain.TaskStateArchived {
			return false
		}
	}

	if filter.Principal != nil && !task.VisibleTo(*filter.Principal, filter.IncludeCreated) {
		return false
	}

	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		if !strings.Contains(strings.ToLower(task.Title), q) &&
			!strings.Contains(strings.ToLower(task.Description), q) {
			return false
		}
	}

	if filter.DueBefore != nil {
		if task.DueDate == nil || task.DueDate.After(*filter.DueBefore) {
			return false
		}
	}
	return true
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	if t.DueDate != nil {
		d := *t.DueDate
		clone.DueDate = &d
	}
	if t.StartedAt != nil {
		d := *t.StartedAt
		clone.StartedAt = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		clone.CompletedAt = &d
	}
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		clone.AssignedTo = &id
	}
	clone.AssignedUserIDs = append([]uuid.UUID(nil), t.AssignedUserIDs...)
	return &clone
}
