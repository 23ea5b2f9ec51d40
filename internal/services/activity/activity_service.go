package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// ActivityService keeps the audit trail. Recording is best effort: a failed
// insert is logged and never fails the audited operation.
type ActivityService struct {
	repo  Repository
	clock clock.Clock
}

func NewActivityService(repo Repository, clk clock.Clock) *ActivityService {
	return &ActivityService{repo: repo, clock: clk}
}

func (s *ActivityService) Record(ctx context.Context, userID uuid.UUID, action Action, details Details) {
	var uid *uuid.UUID
	if userID != uuid.Nil {
		uid = &userID
	}

	entry := &Entry{
		UserID:    uid,
		Action:    action,
		Details:   details,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		slog.WarnContext(ctx, "Unable to record activity",
			slog.String("action", string(action)),
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
	}
}

func (s *ActivityService) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	entries, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
