package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/dashboard/internal/notify"
	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/stats"
	"github.com/curaious/dashboard/internal/services/task"
	"github.com/curaious/dashboard/internal/store/memory"
)

func tasksWith(statuses ...task.Status) []*task.Task {
	out := make([]*task.Task, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, &task.Task{ID: uuid.New(), Status: s})
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		tasks []*task.Task
		want  project.Derived
	}{
		{
			name:  "no tasks",
			tasks: nil,
			want:  project.Derived{Progress: 0, Status: project.StatusPlanning},
		},
		{
			name:  "two of three complete",
			tasks: tasksWith(task.StatusComplete, task.StatusComplete, task.StatusIncomplete),
			want: project.Derived{
				TaskStats: project.TaskStats{Total: 3, Completed: 2, Incomplete: 1},
				Progress:  67,
				Status:    project.StatusInProgress,
			},
		},
		{
			name:  "single complete task",
			tasks: tasksWith(task.StatusComplete),
			want: project.Derived{
				TaskStats: project.TaskStats{Total: 1, Completed: 1},
				Progress:  100,
				Status:    project.StatusCompleted,
			},
		},
		{
			name:  "nothing complete",
			tasks: tasksWith(task.StatusIncomplete, task.StatusIncomplete),
			want: project.Derived{
				TaskStats: project.TaskStats{Total: 2, Incomplete: 2},
				Progress:  0,
				Status:    project.StatusPlanning,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stats.Compute(tt.tasks))
		})
	}
}

func TestProgressRoundsHalfUp(t *testing.T) {
	assert.Equal(t, 33, stats.Progress(1, 3))
	assert.Equal(t, 67, stats.Progress(2, 3))
	assert.Equal(t, 50, stats.Progress(1, 2))
	assert.Equal(t, 13, stats.Progress(1, 8))
	assert.Equal(t, 1, stats.Progress(1, 200))
	assert.Equal(t, 0, stats.Progress(1, 201))
	assert.Equal(t, 0, stats.Progress(0, 0))
	assert.Equal(t, 100, stats.Progress(5, 5))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, project.StatusPlanning, stats.StatusFor(0))
	assert.Equal(t, project.StatusInProgress, stats.StatusFor(1))
	assert.Equal(t, project.StatusInProgress, stats.StatusFor(99))
	assert.Equal(t, project.StatusCompleted, stats.StatusFor(100))
}

func TestEngine_Recompute(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	store := memory.New(clk, 8)
	recorder := notify.NewRecorder()
	engine := stats.NewEngine(store.Tasks(), store.Projects(), recorder, clk)

	p, err := store.Projects().Create(ctx, &project.Project{Name: "Apollo", Slug: "apollo"})
	require.NoError(t, err)

	for _, s := range []task.Status{task.StatusComplete, task.StatusComplete, task.StatusIncomplete} {
		_, err := store.Tasks().Create(ctx, &task.Task{ProjectID: p.ID, Name: "t", Status: s, AssignedTo: "x"})
		require.NoError(t, err)
	}

	clk.Add(time.Hour)
	got, err := engine.Recompute(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.TaskStats{Total: 3, Completed: 2, Incomplete: 1}, got.TaskStats)
	assert.Equal(t, 67, got.Progress)
	assert.Equal(t, project.StatusInProgress, got.Status)
	assert.True(t, got.UpdatedAt.Equal(clk.Now()))

	stored, err := store.Projects().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Derived(), stored.Derived())

	events := recorder.Named(notify.EventStatsUpdated)
	require.Len(t, events, 1)
	assert.Equal(t, notify.ChannelProjectUpdates, events[0].Channel)
	payload := events[0].Data.(notify.StatsUpdatedPayload)
	assert.Equal(t, p.ID.String(), payload.ProjectID)
	assert.Equal(t, 67, payload.Progress)
	assert.Equal(t, "in-progress", payload.Status)

	again, err := engine.Recompute(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Derived(), again.Derived())
}

func TestEngine_RecomputeUnknownProject(t *testing.T) {
	clk := clock.NewMock()
	store := memory.New(clk, 8)
	engine := stats.NewEngine(store.Tasks(), store.Projects(), notify.Nop{}, clk)

	_, err := engine.Recompute(context.Background(), uuid.New())
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}
