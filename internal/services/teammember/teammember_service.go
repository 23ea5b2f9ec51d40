package teammember

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
)

var ErrInvalidTeamMember = errors.New("invalid team member")

type TeamMemberService struct {
	repo           Repository
	clock          clock.Clock
	fallbackMaxCap int
}

// NewTeamMemberService builds the service. fallbackMaxCapacity is used when the
// stored default cannot be read.
func NewTeamMemberService(repo Repository, clk clock.Clock, fallbackMaxCapacity int) *TeamMemberService {
	return &TeamMemberService{repo: repo, clock: clk, fallbackMaxCap: fallbackMaxCapacity}
}

func (s *TeamMemberService) Create(ctx context.Context, req *CreateTeamMemberRequest) (*TeamMember, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTeamMember)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidTeamMember)
	}

	var maxCapacity int
	if req.MaxCapacity != nil {
		if *req.MaxCapacity <= 0 {
			return nil, fmt.Errorf("%w: max capacity must be positive", ErrInvalidTeamMember)
		}
		maxCapacity = *req.MaxCapacity
	} else {
		maxCapacity = s.DefaultMaxCapacity(ctx)
	}

	member, err := s.repo.Create(ctx, &TeamMember{
		Name:        name,
		Email:       email,
		Role:        strings.TrimSpace(req.Role),
		MaxCapacity: maxCapacity,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	return member.Derive(), nil
}

func (s *TeamMemberService) GetByName(ctx context.Context, name string) (*TeamMember, error) {
	member, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return member.Derive(), nil
}

// List returns every member with capacity, tier and availability filled in.
func (s *TeamMemberService) List(ctx context.Context) ([]*TeamMember, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		m.Derive()
	}
	return members, nil
}

// ListAvailable returns the members that can take one more task.
func (s *TeamMemberService) ListAvailable(ctx context.Context) ([]*TeamMember, error) {
	members, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]*TeamMember, 0, len(members))
	for _, m := range members {
		if m.Available {
			available = append(available, m)
		}
	}
	return available, nil
}

func (s *TeamMemberService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *TeamMemberService) DefaultMaxCapacity(ctx context.Context) int {
	maxCapacity, err := s.repo.DefaultMaxCapacity(ctx)
	if err != nil || maxCapacity <= 0 {
		if err != nil {
			slog.WarnContext(ctx, "Falling back to configured max capacity", slog.Any("error", err))
		}
		return s.fallbackMaxCap
	}
	return maxCapacity
}

// SetGlobalMaxCapacity applies maxCapacity to every member and to the default
// used for new members.
func (s *TeamMemberService) SetGlobalMaxCapacity(ctx context.Context, maxCapacity int) ([]*TeamMember, error) {
	if maxCapacity <= 0 {
		return nil, fmt.Errorf("%w: max capacity must be positive", ErrInvalidTeamMember)
	}
	if err := s.repo.SetMaxCapacityAll(ctx, maxCapacity, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.List(ctx)
}
