package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/curaious/dashboard/internal/notify"
	"github.com/curaious/dashboard/internal/services/activity"
)

const MinPasswordLength = 8

var (
	ErrInvalidUser            = errors.New("invalid user")
	ErrCannotDeleteSelf       = errors.New("users cannot delete themselves")
	ErrCannotDeleteSuperadmin = errors.New("superadmin accounts cannot be deleted")
)

type ActivityRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, action activity.Action, details activity.Details)
}

type CountsReader interface {
	Counts(ctx context.Context, now time.Time) (*Counts, error)
}

// PublishCounts emits the aggregate counts. Failures are logged only.
func PublishCounts(ctx context.Context, repo CountsReader, n notify.Notifier, now time.Time) {
	counts, err := repo.Counts(ctx, now)
	if err != nil {
		slog.WarnContext(ctx, "Unable to compute user counts", slog.Any("error", err))
		return
	}
	n.Notify(ctx, notify.CountsUpdated(counts))
}

// UserService holds the superadmin account management operations.
type UserService struct {
	repo     Repository
	notifier notify.Notifier
	activity ActivityRecorder
	clock    clock.Clock
	hashCost int
}

func NewUserService(repo Repository, notifier notify.Notifier, recorder ActivityRecorder, clk clock.Clock) *UserService {
	return &UserService{
		repo:     repo,
		notifier: notifier,
		activity: recorder,
		clock:    clk,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *UserService) Create(ctx context.Context, req *CreateUserRequest, createdBy CreatedBy) (*User, error) {
	email := NormalizeIdentifier(req.Email)
	username := NormalizeIdentifier(req.Username)
	name := strings.TrimSpace(req.Name)

	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidUser)
	case username == "" || strings.Contains(username, "@"):
		return nil, fmt.Errorf("%w: username is required and cannot contain '@'", ErrInvalidUser)
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidUser)
	case len(req.Password) < MinPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, MinPasswordLength)
	}

	role := req.Role
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, role)
	}

	for _, identifier := range []string{email, username} {
		if _, err := s.repo.GetByIdentifier(ctx, identifier); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrUserAlreadyExists, identifier)
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("failed to validate user: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &User{
		Email:        email,
		Username:     username,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedBy:    createdBy,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	actorID, _ := createdBy.UserID()
	s.activity.Record(ctx, actorID, activity.ActionUserCreated, activity.Details{
		"userId":   created.ID.String(),
		"username": created.Username,
		"role":     string(created.Role),
	})
	s.notifier.Notify(ctx, notify.UserCreated(created.ID.String(), created.Public(now), now))
	PublishCounts(ctx, s.repo, s.notifier, now)

	return created, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]PublicUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public(now))
	}
	return out, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID, actor *User) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if actor != nil && actor.ID == target.ID {
		return ErrCannotDeleteSelf
	}
	if target.Role == RoleSuperAdmin {
		return ErrCannotDeleteSuperadmin
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	now := s.clock.Now()
	s.activity.Record(ctx, actorIDOf(actor), activity.ActionUserDeleted, activity.Details{
		"userId":   target.ID.String(),
		"username": target.Username,
	})
	s.notifier.Notify(ctx, notify.UserDeleted(target.ID.String(), target.Public(now), now))
	PublishCounts(ctx, s.repo, s.notifier, now)

	return nil
}

// ChangePassword replaces the hash and ends the user's current session.
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, password string, actor *User) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, MinPasswordLength)
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	if err := s.repo.UpdatePassword(ctx, id, string(hash), now); err != nil {
		return err
	}

	s.activity.Record(ctx, actorIDOf(actor), activity.ActionPasswordChanged, activity.Details{
		"userId": target.ID.String(),
	})
	s.notifier.Notify(ctx, notify.PasswordChanged(target.ID.String(), target.Public(now), now))
	PublishCounts(ctx, s.repo, s.notifier, now)

	return nil
}

func (s *UserService) Counts(ctx context.Context) (*Counts, error) {
	return s.repo.Counts(ctx, s.clock.Now())
}

func actorIDOf(actor *User) uuid.UUID {
	if actor == nil {
		return uuid.Nil
	}
	return actor.ID
}
