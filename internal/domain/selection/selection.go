// Package selection implements weighted random task selection. Tasks due
// sooner are proportionally more likely to be picked; overdue tasks carry
// the highest weight and tasks without a due date the lowest nonzero one,
// so every candidate remains selectable.
package selection

import (
	"time"

	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// Urgency band weights, monotonically decreasing with time-to-due.
const (
	weightOverdue      = 1000
	weightWithin24h    = 500
	weightWithin48h    = 300
	weightWithin72h    = 200
	weightWithinWeek   = 100
	weightWithin2Weeks = 50
	weightWithinMonth  = 20
	weightLater        = 5
	weightNoDueDate    = 1
)

// RandSource is the random draw dependency. *math/rand.Rand satisfies it;
// tests substitute deterministic sequences.
type RandSource interface {
	// Int63n returns a non-negative pseudo-random number in [0, n).
	Int63n(n int64) int64
}

// Weight returns the selection weight of a task at the given instant.
func Weight(t *domain.Task, now time.Time) int64 {
	if t.DueDate == nil {
		return weightNoDueDate
	}

	until := t.DueDate.Sub(now)
	switch {
	case until <= 0:
		return weightOverdue
	case until <= 24*time.Hour:
		return weightWithin24h
	case until <= 48*time.Hour:
		return weightWithin48h
	case until <= 72*time.Hour:
		return weightWithin72h
	case until <= 7*24*time.Hour:
		return weightWithinWeek
	case until <= 14*24*time.Hour:
		return weightWithin2Weeks
	case until <= 30*24*time.Hour:
		return weightWithinMonth
	default:
		return weightLater
	}
}

// Pick selects one task from the candidate set proportionally to the band
// weights, using a single draw from rnd. Returns false when the set is
// empty. Candidates are expected to be pre-filtered (non-archived,
// non-done, visibility already applied).
func Pick(tasks []*domain.Task, now time.Time, rnd RandSource) (*domain.Task, bool) {
	if len(tasks) == 0 {
		return nil, false
	}

	var total int64
	cumulative := make([]int64, len(tasks))
	for i, t := range tasks {
		total += Weight(t, now)
		cumulative[i] = total
	}

	draw := rnd.Int63n(total)
	for i, c := range cumulative {
		if draw < c {
			return tasks[i], true
		}
	}
	// Unreachable: draw < total by contract.
	return tasks[len(tasks)-1], true
}
