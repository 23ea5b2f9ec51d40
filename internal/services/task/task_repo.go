package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrTaskNotFound = errors.New("task not found")

type Repository interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error)
	Update(ctx context.Context, t *Task) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const taskColumns = `id, project_id, name, status, assigned_to, created_by, last_modified_by, completed_at, created_at, updated_at`

type TaskRepo struct {
	db *sqlx.DB
}

func NewTaskRepo(db *sqlx.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, t *Task) (*Task, error) {
	query := `
		INSERT INTO tasks (project_id, name, status, assigned_to, created_by, last_modified_by, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + taskColumns

	var created Task
	err := r.db.GetContext(ctx, &created, query,
		t.ProjectID, t.Name, t.Status, t.AssignedTo, t.CreatedBy, t.LastModifiedBy, t.CompletedAt, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &created, nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// ListByProject returns every task of the project, oldest first.
func (r *TaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error) {
	var tasks []*Task
	err := r.db.SelectContext(ctx, &tasks,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, t *Task) (*Task, error) {
	query := `
		UPDATE tasks
		SET name = $2, status = $3, assigned_to = $4, last_modified_by = $5, completed_at = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + taskColumns

	var updated Task
	err := r.db.GetContext(ctx, &updated, query,
		t.ID, t.Name, t.Status, t.AssignedTo, t.LastModifiedBy, t.CompletedAt, t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &updated, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}
