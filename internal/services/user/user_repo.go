package user

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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Repository is the user store, including the session fields embedded in each
// user record. Every write is a single-row UPDATE; concurrent writers resolve
// last-writer-wins.
type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetBySessionToken(ctx context.Context, token string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error

	StartSession(ctx context.Context, id uuid.UUID, s Session) error
	ExtendSession(ctx context.Context, token string, expiresAt, at time.Time) (bool, error)
	ClearSession(ctx context.Context, id uuid.UUID, token string) (bool, error)
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error
	Counts(ctx context.Context, now time.Time) (*Counts, error)
}

const userColumns = `id, email, username, name, password_hash, role, session_token, session_created_at,
		session_expires_at, last_activity, last_login, is_active, created_by, created_at, updated_at`

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (email, username, name, password_hash, role, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	var created User
	err := r.db.GetContext(ctx, &created, query,
		NormalizeIdentifier(u.Email), NormalizeIdentifier(u.Username), u.Name, u.PasswordHash, u.Role, u.IsActive, u.CreatedBy)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &created, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1 LIMIT 1`,
		NormalizeIdentifier(identifier))
}

func (r *UserRepo) GetBySessionToken(ctx context.Context, token string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE session_token = $1`, token)
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*User, error) {
	var users []*User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(result, ErrUserNotFound)
}

// UpdatePassword also clears the session so that the old credentials' session
// cannot outlive the change.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, session_token = NULL, session_created_at = NULL,
		    session_expires_at = NULL, last_activity = NULL, updated_at = $3
		WHERE id = $1
	`, id, hash, at)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireAffected(result, ErrUserNotFound)
}

func (r *UserRepo) StartSession(ctx context.Context, id uuid.UUID, s Session) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET session_token = $2, session_created_at = $3, session_expires_at = $4,
		    last_activity = $3, last_login = $3, updated_at = $3
		WHERE id = $1
	`, id, s.Token, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return requireAffected(result, ErrUserNotFound)
}

func (r *UserRepo) ExtendSession(ctx context.Context, token string, expiresAt, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET session_expires_at = $2, last_activity = $3
		WHERE session_token = $1
	`, token, expiresAt, at)
	if err != nil {
		return false, fmt.Errorf("failed to extend session: %w", err)
	}
	return affected(result)
}

func (r *UserRepo) ClearSession(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET session_token = NULL, session_created_at = NULL, session_expires_at = NULL, last_activity = NULL
		WHERE id = $1 AND session_token = $2
	`, id, token)
	if err != nil {
		return false, fmt.Errorf("failed to clear session: %w", err)
	}
	return affected(result)
}

func (r *UserRepo) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_activity = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch activity: %w", err)
	}
	return nil
}

func (r *UserRepo) Counts(ctx context.Context, now time.Time) (*Counts, error) {
	var counts Counts
	err := r.db.GetContext(ctx, &counts, `
		SELECT
			COUNT(*) AS total_users,
			COUNT(*) FILTER (WHERE role = 'superadmin') AS total_superadmins,
			COUNT(*) FILTER (WHERE role = 'manager') AS total_managers,
			COUNT(*) FILTER (WHERE session_expires_at > $1) AS total_online
		FROM users
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	return &counts, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func requireAffected(result sql.Result, notFound error) error {
	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}
