package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/task"
)

type TaskRepo struct {
	s *Store
}

var _ task.Repository = (*TaskRepo)(nil)

func cloneTask(t *task.Task) *task.Task {
	c := *t
	if t.LastModifiedBy != nil {
		id := *t.LastModifiedBy
		c.LastModifiedBy = &id
	}
	c.CompletedAt = timePtr(t.CompletedAt)
	return &c
}

func (r *TaskRepo) Create(_ context.Context, t *task.Task) (*task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[t.ProjectID]; !ok {
		return nil, fmt.Errorf("failed to create task: %w", project.ErrProjectNotFound)
	}

	created := cloneTask(t)
	created.ID = uuid.New()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.s.clock.Now()
	}
	created.UpdatedAt = created.CreatedAt

	r.s.tasks[created.ID] = created
	r.s.taskOrder = append(r.s.taskOrder, created.ID)
	return cloneTask(created), nil
}

func (r *TaskRepo) GetByID(_ context.Context, id uuid.UUID) (*task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// ListByProject returns the project's tasks oldest first.
func (r *TaskRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*task.Task
	for _, id := range r.s.taskOrder {
		if t := r.s.tasks[id]; t.ProjectID == projectID {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (r *TaskRepo) Update(_ context.Context, t *task.Task) (*task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tasks[t.ID]
	if !ok {
		return nil, task.ErrTaskNotFound
	}

	updated := cloneTask(t)
	updated.ProjectID = existing.ProjectID
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	r.s.tasks[t.ID] = updated
	return cloneTask(updated), nil
}

func (r *TaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return task.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	r.s.taskOrder = removeID(r.s.taskOrder, id)
	return nil
}

func (s *Store) countAssigned(name string) int {
	n := 0
	for _, t := range s.tasks {
		if t.AssignedTo == name {
			n++
		}
	}
	return n
}
