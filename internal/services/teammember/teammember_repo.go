package teammember

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrTeamMemberNotFound      = errors.New("team member not found")
	ErrTeamMemberAlreadyExists = errors.New("team member already exists")
)

type Repository interface {
	Create(ctx context.Context, m *TeamMember) (*TeamMember, error)
	GetByID(ctx context.Context, id uuid.UUID) (*TeamMember, error)
	GetByName(ctx context.Context, name string) (*TeamMember, error)
	List(ctx context.Context) ([]*TeamMember, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DefaultMaxCapacity(ctx context.Context) (int, error)
	// SetMaxCapacityAll sets the default and every member's max capacity atomically.
	SetMaxCapacityAll(ctx context.Context, maxCapacity int, at time.Time) error
}

const selectMembers = `
	SELECT m.id, m.name, m.email, m.role, m.max_capacity, m.created_at, m.updated_at,
	       (SELECT COUNT(*) FROM tasks t WHERE t.assigned_to = m.name) AS task_count
	FROM team_members m`

type TeamMemberRepo struct {
	db *sqlx.DB
}

func NewTeamMemberRepo(db *sqlx.DB) *TeamMemberRepo {
	return &TeamMemberRepo{db: db}
}

func (r *TeamMemberRepo) Create(ctx context.Context, m *TeamMember) (*TeamMember, error) {
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO team_members (name, email, role, max_capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`, m.Name, m.Email, m.Role, m.MaxCapacity, m.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrTeamMemberAlreadyExists
		}
		return nil, fmt.Errorf("failed to create team member: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *TeamMemberRepo) GetByID(ctx context.Context, id uuid.UUID) (*TeamMember, error) {
	return r.getOne(ctx, selectMembers+` WHERE m.id = $1`, id)
}

func (r *TeamMemberRepo) GetByName(ctx context.Context, name string) (*TeamMember, error) {
	return r.getOne(ctx, selectMembers+` WHERE m.name = $1`, name)
}

func (r *TeamMemberRepo) getOne(ctx context.Context, query string, args ...any) (*TeamMember, error) {
	var member TeamMember
	if err := r.db.GetContext(ctx, &member, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return &member, nil
}

func (r *TeamMemberRepo) List(ctx context.Context) ([]*TeamMember, error) {
	var members []*TeamMember
	if err := r.db.SelectContext(ctx, &members, selectMembers+` ORDER BY m.name`); err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

func (r *TeamMemberRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrTeamMemberNotFound
	}
	return nil
}

func (r *TeamMemberRepo) DefaultMaxCapacity(ctx context.Context) (int, error) {
	var maxCapacity int
	err := r.db.GetContext(ctx, &maxCapacity, `SELECT default_max_capacity FROM team_settings WHERE id = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to read default max capacity: %w", err)
	}
	return maxCapacity, nil
}

func (r *TeamMemberRepo) SetMaxCapacityAll(ctx context.Context, maxCapacity int, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO team_settings (id, default_max_capacity, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET default_max_capacity = EXCLUDED.default_max_capacity, updated_at = EXCLUDED.updated_at
	`, maxCapacity, at); err != nil {
		return fmt.Errorf("failed to update default max capacity: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE team_members SET max_capacity = $1, updated_at = $2`, maxCapacity, at); err != nil {
		return fmt.Errorf("failed to update team member capacity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit capacity update: %w", err)
	}
	return nil
}
