package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/services/project"
)

type ProjectRepo struct {
	s *Store
}

var _ project.Repository = (*ProjectRepo)(nil)

func cloneProject(p *project.Project) *project.Project {
	c := *p
	return &c
}

func (r *ProjectRepo) Create(_ context.Context, p *project.Project) (*project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.slugTaken(p.Slug, uuid.Nil) {
		return nil, project.ErrProjectAlreadyExists
	}

	created := cloneProject(p)
	created.ID = uuid.New()
	created.Status = project.StatusPlanning
	created.Progress = 0
	created.TaskStats = project.TaskStats{}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.s.clock.Now()
	}
	created.UpdatedAt = created.CreatedAt

	r.s.projects[created.ID] = created
	r.s.projectOrder = append(r.s.projectOrder, created.ID)
	return cloneProject(created), nil
}

func (r *ProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (r *ProjectRepo) SlugExists(_ context.Context, slug string, exclude uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.slugTaken(slug, exclude), nil
}

func (s *Store) slugTaken(slug string, exclude uuid.UUID) bool {
	for id, p := range s.projects {
		if id != exclude && p.Slug == slug {
			return true
		}
	}
	return false
}

// List returns projects newest first.
func (r *ProjectRepo) List(_ context.Context) ([]*project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*project.Project, 0, len(r.s.projectOrder))
	for i := len(r.s.projectOrder) - 1; i >= 0; i-- {
		out = append(out, cloneProject(r.s.projects[r.s.projectOrder[i]]))
	}
	return out, nil
}

func (r *ProjectRepo) Update(_ context.Context, id uuid.UUID, fields project.UpdateFields, at time.Time) (*project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	if fields.Name == nil && fields.Slug == nil && fields.Description == nil {
		return cloneProject(p), nil
	}

	if fields.Slug != nil && r.s.slugTaken(*fields.Slug, id) {
		return nil, project.ErrProjectAlreadyExists
	}
	if fields.Name != nil {
		p.Name = *fields.Name
	}
	if fields.Slug != nil {
		p.Slug = *fields.Slug
	}
	if fields.Description != nil {
		p.Description = *fields.Description
	}
	p.UpdatedAt = at
	return cloneProject(p), nil
}

func (r *ProjectRepo) UpdateStats(_ context.Context, id uuid.UUID, d project.Derived, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return project.ErrProjectNotFound
	}
	p.ApplyDerived(d, at)
	return nil
}

// Delete removes the project and cascades to its tasks.
func (r *ProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return project.ErrProjectNotFound
	}
	delete(r.s.projects, id)
	r.s.projectOrder = removeID(r.s.projectOrder, id)

	for taskID, t := range r.s.tasks {
		if t.ProjectID == id {
			delete(r.s.tasks, taskID)
			r.s.taskOrder = removeID(r.s.taskOrder, taskID)
		}
	}
	return nil
}
