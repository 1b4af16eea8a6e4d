// Package maintenance implements the periodic background sweep: archiving
// stale completed tasks and printing-then-starting tasks that are due.
package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/printing"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Config holds the maintenance job's timing knobs.
type Config struct {
	// Interval is the sweep period.
	Interval time.Duration

	// Retention is how long a done task keeps its done state before the
	// sweep archives it, measured from its completion time.
	Retention time.Duration

	// Lookahead is how far ahead of the due date a todo task is picked up,
	// printed, and auto-started.
	Lookahead time.Duration

	// PrintTimeout bounds each print attempt.
	PrintTimeout time.Duration
}

// DefaultConfig returns a Config with production defaults: hourly sweeps,
// one week of retention, a six hour due-date lookahead.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Hour,
		Retention:    7 * 24 * time.Hour,
		Lookahead:    6 * time.Hour,
		PrintTimeout: 30 * time.Second,
	}
}

// Job runs the periodic maintenance sweep. Exactly one sweep runs at a
// time; a sweep that overruns the interval simply delays the next tick.
type Job struct {
	tasks      store.TaskStore
	printer    printing.Printer
	config     Config
	logger     *slog.Logger
	timeFunc   func() time.Time
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewJob creates a maintenance Job. Dependencies must be non-nil; the
// configuration is taken as given (validate via config loading).
func NewJob(
	tasks store.TaskStore,
	printer printing.Printer,
	config Config,
	logger *slog.Logger,
) *Job {
	if tasks == nil {
		panic("maintenance: task store cannot be nil")
	}
	if printer == nil {
		panic("maintenance: printer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		tasks:      tasks,
		printer:    printer,
		config:     config,
		logger:     logger.With(slog.String("component", "maintenance")),
		timeFunc:   time.Now,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// SetTimeFunc overrides the clock, for testing.
func (j *Job) SetTimeFunc(f func() time.Time) {
	j.timeFunc = f
}

// Start launches the sweep loop in a background goroutine. The first
// sweep runs after one full interval.
func (j *Job) Start() {
	j.wg.Add(1)
	go j.loop()
	j.logger.Info("maintenance job started",
		slog.Duration("interval", j.config.Interval),
		slog.Duration("retention", j.config.Retention),
		slog.Duration("lookahead", j.config.Lookahead))
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (j *Job) Stop() {
	j.cancelFunc()
	j.wg.Wait()
	j.logger.Info("maintenance job stopped")
}

func (j *Job) loop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			if err := j.RunOnce(j.ctx); err != nil {
				j.logger.Error("maintenance sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce executes a single sweep: the archive pass runs to completion
// before the due-task pass begins, so a task archived in the first pass
// is never considered by the second. Per-task failures are logged and do
// not stop the sweep; only listing failures abort it.
func (j *Job) RunOnce(ctx context.Context) error {
	now := j.timeFunc().UTC()

	if err := j.archiveStaleDone(ctx, now); err != nil {
		return err
	}
	return j.startDueTasks(ctx, now)
}

// archiveStaleDone archives done tasks whose completion time is older
// than the retention window.
func (j *Job) archiveStaleDone(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-j.config.Retention)

	tasks, err := j.tasks.List(ctx, store.TaskFilter{
		States: []domain.TaskState{domain.TaskStateDone},
	})
	if err != nil {
		return err
	}

	archived := 0
	for _, task := range tasks {
		if task.CompletedAt == nil || task.CompletedAt.After(cutoff) {
			continue
		}

		// The listing is a snapshot; re-read so a concurrent user
		// transition is not overwritten with stale fields.
		current, err := j.tasks.GetByID(ctx, task.ID)
		if err != nil {
			j.logger.Warn("stale task disappeared before archiving",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if current.CompletedAt == nil || current.CompletedAt.After(cutoff) {
			continue
		}
		if err := current.Archive(now); err != nil {
			j.logger.Warn("skipping unarchivable task",
				slog.String("task_id", current.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if err := j.tasks.Update(ctx, current); err != nil {
			j.logger.Error("failed to archive stale task",
				slog.String("task_id", current.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		archived++
	}

	if archived > 0 {
		j.logger.Info("archived stale done tasks", slog.Int("count", archived))
	}
	return nil
}

// startDueTasks prints and starts todo tasks that are overdue or due
// within the lookahead window. Printing happens before the state change:
// a task whose print fails stays todo and is retried next sweep.
func (j *Job) startDueTasks(ctx context.Context, now time.Time) error {
	horizon := now.Add(j.config.Lookahead)

	tasks, err := j.tasks.List(ctx, store.TaskFilter{
		States:    []domain.TaskState{domain.TaskStateTodo},
		DueBefore: &horizon,
	})
	if err != nil {
		return err
	}

	started := 0
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}

		if err := j.printTask(ctx, task); err != nil {
			j.logger.Error("failed to print due task, leaving it untouched",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		// Printing can be slow; re-read after it returns so a transition
		// a user made in the meantime is respected, not clobbered.
		current, err := j.tasks.GetByID(ctx, task.ID)
		if err != nil {
			j.logger.Warn("due task disappeared before starting",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if err := current.Start(now); err != nil {
			j.logger.Warn("due task no longer startable",
				slog.String("task_id", current.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if err := j.tasks.Update(ctx, current); err != nil {
			j.logger.Error("failed to start due task",
				slog.String("task_id", current.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		started++
	}

	if started > 0 {
		j.logger.Info("printed and started due tasks", slog.Int("count", started))
	}
	return nil
}

func (j *Job) printTask(ctx context.Context, task *domain.Task) error {
	printCtx := ctx
	if j.config.PrintTimeout > 0 {
		var cancel context.CancelFunc
		printCtx, cancel = context.WithTimeout(ctx, j.config.PrintTimeout)
		defer cancel()
	}
	return j.printer.Print(printCtx, task)
}
