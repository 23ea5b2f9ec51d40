package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
)

var ErrInvalidProject = errors.New("invalid project")

// maxSlugAttempts bounds the numeric suffix search.
const maxSlugAttempts = 1000

// ProjectService contains business logic for projects. It never writes the
// derived fields; those belong to the stats engine.
type ProjectService struct {
	repo  Repository
	clock clock.Clock
}

// NewProjectService constructs a new ProjectService
func NewProjectService(repo Repository, clk clock.Clock) *ProjectService {
	return &ProjectService{repo: repo, clock: clk}
}

// Create registers a new project with a unique slug derived from its name
func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest, createdBy uuid.UUID) (*Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidProject)
	}

	slug, err := s.uniqueSlug(ctx, name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	project, err := s.repo.Create(ctx, &Project{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   createdBy,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// GetByID fetches a project by its identifier
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// List returns all projects
func (s *ProjectService) List(ctx context.Context) ([]*Project, error) {
	return s.repo.List(ctx)
}

// Update edits name and description. A rename re-derives the slug.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *UpdateProjectRequest) (*Project, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields UpdateFields
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: project name cannot be empty", ErrInvalidProject)
		}
		if name != current.Name {
			slug, err := s.uniqueSlug(ctx, name, id)
			if err != nil {
				return nil, err
			}
			fields.Name = &name
			fields.Slug = &slug
		}
	}

	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		fields.Description = &description
	}

	return s.repo.Update(ctx, id, fields, s.clock.Now())
}

// Delete removes a project together with its tasks
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *ProjectService) uniqueSlug(ctx context.Context, name string, exclude uuid.UUID) (string, error) {
	base := Slugify(name)
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := SlugCandidate(base, n)
		exists, err := s.repo.SlugExists(ctx, candidate, exclude)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: slug %s", ErrProjectAlreadyExists, base)
}
