// Package scheduler runs the recurring background tasks spec.md §6's
// config `schedule` key names: periodic filter-list refresh and
// statistics-retention pruning. Grounded on the teacher's
// internal/filtering/policy.go refreshLoop (time.Ticker + select over
// ticker/stop channel), generalized from one fixed blocklist-refresh timer
// to a small set of named, independently-scheduled tasks.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/resolvd/resolvd/internal/resolvdconfig"
)

// Task is one recurring job a Scheduler drives on its own ticker.
type Task struct {
	Name     resolvdconfig.TaskKind
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler runs a fixed set of Tasks, each on its own ticker, until its
// context is cancelled.
type Scheduler struct {
	Logger *slog.Logger

	tasks []Task
	wg    sync.WaitGroup
}

// New returns a Scheduler for the given tasks. A task with a non-positive
// Interval is skipped (matching spec.md §6's schedule entries being
// optional).
func New(logger *slog.Logger, tasks []Task) *Scheduler {
	return &Scheduler{Logger: logger, tasks: tasks}
}

// Run starts every configured task's ticker loop and blocks until ctx is
// cancelled, then waits for any in-flight task run to finish.
func (s *Scheduler) Run(ctx context.Context) {
	for _, t := range s.tasks {
		if t.Interval <= 0 || t.Run == nil {
			continue
		}
		s.wg.Add(1)
		go s.runTask(ctx, t)
	}
	<-ctx.Done()
	s.wg.Wait()
}

func (s *Scheduler) runTask(ctx context.Context, t Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logf("running scheduled task", "task", t.Name)
			t.Run(ctx)
		}
	}
}

func (s *Scheduler) logf(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Debug(msg, args...)
	}
}
