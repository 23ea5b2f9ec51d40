package activity

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit int) ([]*Entry, error)
}

type ActivityRepo struct {
	db *sqlx.DB
}

func NewActivityRepo(db *sqlx.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, e *Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4)
	`, e.UserID, e.Action, e.Details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}
	return nil
}

func (r *ActivityRepo) List(ctx context.Context, limit int) ([]*Entry, error) {
	var entries []*Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, action, details, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
