// Package stats derives a project's progress, status and task breakdown from
// its task set. Engine.Recompute is the only writer of those fields.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/notify"
	"github.com/curaious/dashboard/internal/services/capacity"
	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/task"
)

// Progress is completed/total*100 rounded half-up, 0 for an empty project.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return capacity.RoundPercent(completed, total)
}

func StatusFor(progress int) project.Status {
	switch {
	case progress >= 100:
		return project.StatusCompleted
	case progress > 0:
		return project.StatusInProgress
	default:
		return project.StatusPlanning
	}
}

func Compute(tasks []*task.Task) project.Derived {
	var ts project.TaskStats
	for _, t := range tasks {
		ts.Total++
		if t.Status == task.StatusComplete {
			ts.Completed++
		}
	}
	ts.Incomplete = ts.Total - ts.Completed

	progress := Progress(ts.Completed, ts.Total)
	return project.Derived{
		TaskStats: ts,
		Progress:  progress,
		Status:    StatusFor(progress),
	}
}

type TaskLister interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*task.Task, error)
}

type ProjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error)
	UpdateStats(ctx context.Context, id uuid.UUID, d project.Derived, at time.Time) error
}

type Engine struct {
	tasks    TaskLister
	projects ProjectStore
	notifier notify.Notifier
	clock    clock.Clock
}

func NewEngine(tasks TaskLister, projects ProjectStore, notifier notify.Notifier, clk clock.Clock) *Engine {
	return &Engine{tasks: tasks, projects: projects, notifier: notifier, clock: clk}
}

// Recompute reads every task of the project and writes the derived fields in
// a single update. Concurrent calls are last-writer-wins; the next call heals
// any drift.
func (e *Engine) Recompute(ctx context.Context, projectID uuid.UUID) (*project.Project, error) {
	p, err := e.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	tasks, err := e.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to read project tasks: %w", err)
	}

	derived := Compute(tasks)
	now := e.clock.Now()
	if err := e.projects.UpdateStats(ctx, projectID, derived, now); err != nil {
		return nil, err
	}
	p.ApplyDerived(derived, now)

	e.notifier.Notify(ctx, notify.StatsUpdated(p.ID.String(), p.TaskStats, p.Progress, string(p.Status), now))
	return p, nil
}
