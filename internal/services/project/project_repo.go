package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectAlreadyExists = errors.New("project already exists")
)

type Repository interface {
	Create(ctx context.Context, p *Project) (*Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*Project, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields, at time.Time) (*Project, error)
	UpdateStats(ctx context.Context, id uuid.UUID, d Derived, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const projectColumns = `id, name, slug, description, status, progress, task_stats, created_by, created_at, updated_at`

// ProjectRepo handles database operations for projects
type ProjectRepo struct {
	db *sqlx.DB
}

// NewProjectRepo creates a new project repository
func NewProjectRepo(db *sqlx.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create inserts a project with zeroed derived fields.
func (r *ProjectRepo) Create(ctx context.Context, p *Project) (*Project, error) {
	query := `
        INSERT INTO projects (name, slug, description, status, progress, task_stats, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        RETURNING ` + projectColumns

	var project Project
	err := r.db.GetContext(ctx, &project, query,
		p.Name, p.Slug, p.Description, StatusPlanning, 0, TaskStats{}, p.CreatedBy, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: slug %s", ErrProjectAlreadyExists, p.Slug)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return &project, nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	var project Project
	err := r.db.GetContext(ctx, &project, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// SlugExists reports whether a project other than exclude already uses slug.
func (r *ProjectRepo) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE slug = $1 AND id <> $2)`, slug, exclude)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// List retrieves all projects ordered by creation date
func (r *ProjectRepo) List(ctx context.Context) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`

	var projects []*Project
	err := r.db.SelectContext(ctx, &projects, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// Update updates the user-editable project fields
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, fields UpdateFields, at time.Time) (*Project, error) {
	setParts := []string{}
	args := []interface{}{}

	if fields.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)+1))
		args = append(args, *fields.Name)
	}

	if fields.Slug != nil {
		setParts = append(setParts, fmt.Sprintf("slug = $%d", len(args)+1))
		args = append(args, *fields.Slug)
	}

	if fields.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", len(args)+1))
		args = append(args, *fields.Description)
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, at)
	args = append(args, id)

	query := fmt.Sprintf(`
        UPDATE projects
        SET %s
        WHERE id = $%d
        RETURNING %s
    `, strings.Join(setParts, ", "), len(args), projectColumns)

	var project Project
	err := r.db.GetContext(ctx, &project, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrProjectAlreadyExists
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return &project, nil
}

// UpdateStats writes the derived fields in one statement.
func (r *ProjectRepo) UpdateStats(ctx context.Context, id uuid.UUID, d Derived, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
        UPDATE projects
        SET task_stats = $2, progress = $3, status = $4, updated_at = $5
        WHERE id = $1
    `, id, d.TaskStats, d.Progress, d.Status, at)
	if err != nil {
		return fmt.Errorf("failed to update project stats: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// Delete removes a project by ID. Its tasks are removed by the foreign key cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}
