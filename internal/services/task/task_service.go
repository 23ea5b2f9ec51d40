package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/services/capacity"
	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/teammember"
)

var (
	ErrInvalidTask      = errors.New("invalid task")
	ErrAssigneeNotFound = errors.New("assignee is not a team member")
	ErrCapacityExceeded = errors.New("team member is at capacity")
)

type ProjectLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error)
}

type MemberLookup interface {
	GetByName(ctx context.Context, name string) (*teammember.TeamMember, error)
}

// StatsRecomputer rewrites a project's derived fields from its current tasks.
type StatsRecomputer interface {
	Recompute(ctx context.Context, projectID uuid.UUID) (*project.Project, error)
}

// TaskService mutates tasks. Every mutation that can change a project's
// derived stats waits for the recompute before returning, and a failed
// recompute fails the mutation.
type TaskService struct {
	repo     Repository
	projects ProjectLookup
	members  MemberLookup
	stats    StatsRecomputer
	clock    clock.Clock
}

func NewTaskService(repo Repository, projects ProjectLookup, members MemberLookup, stats StatsRecomputer, clk clock.Clock) *TaskService {
	return &TaskService{
		repo:     repo,
		projects: projects,
		members:  members,
		stats:    stats,
		clock:    clk,
	}
}

func (s *TaskService) Create(ctx context.Context, projectID uuid.UUID, req *CreateTaskRequest, actor uuid.UUID) (*Task, error) {
	name := strings.TrimSpace(req.Name)
	assignee := strings.TrimSpace(req.AssignedTo)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTask)
	}
	if assignee == "" {
		return nil, fmt.Errorf("%w: assignee is required", ErrInvalidTask)
	}

	status := req.Status
	if status == "" {
		status = StatusIncomplete
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, status)
	}

	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if err := s.checkCapacity(ctx, assignee); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t := &Task{
		ProjectID:      projectID,
		Name:           name,
		Status:         status,
		AssignedTo:     assignee,
		CreatedBy:      actor,
		LastModifiedBy: &actor,
		CreatedAt:      now,
	}
	if status == StatusComplete {
		t.CompletedAt = &now
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}

	if err := s.recompute(ctx, projectID); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TaskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

// Update edits name, assignee and status. Reassigning to a different member
// requires that member to have capacity left.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *UpdateTaskRequest, actor uuid.UUID) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidTask)
		}
		t.Name = name
	}

	if req.AssignedTo != nil {
		assignee := strings.TrimSpace(*req.AssignedTo)
		if assignee == "" {
			return nil, fmt.Errorf("%w: assignee cannot be empty", ErrInvalidTask)
		}
		if assignee != t.AssignedTo {
			if err := s.checkCapacity(ctx, assignee); err != nil {
				return nil, err
			}
			t.AssignedTo = assignee
		}
	}

	now := s.clock.Now()
	statusChanged := false
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, *req.Status)
		}
		statusChanged = t.SetStatus(*req.Status, now)
	}

	t.LastModifiedBy = &actor
	t.UpdatedAt = now

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	if statusChanged {
		if err := s.recompute(ctx, updated.ProjectID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (s *TaskService) SetStatus(ctx context.Context, id uuid.UUID, status Status, actor uuid.UUID) (*Task, error) {
	return s.Update(ctx, id, &UpdateTaskRequest{Status: &status}, actor)
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.recompute(ctx, t.ProjectID)
}

func (s *TaskService) checkCapacity(ctx context.Context, assignee string) error {
	member, err := s.members.GetByName(ctx, assignee)
	if err != nil {
		if errors.Is(err, teammember.ErrTeamMemberNotFound) {
			return fmt.Errorf("%w: %s", ErrAssigneeNotFound, assignee)
		}
		return err
	}
	if !capacity.IsAvailable(member.TaskCount, member.MaxCapacity) {
		return fmt.Errorf("%w: %s has %d of %d tasks", ErrCapacityExceeded, member.Name, member.TaskCount, member.MaxCapacity)
	}
	return nil
}

func (s *TaskService) recompute(ctx context.Context, projectID uuid.UUID) error {
	if _, err := s.stats.Recompute(ctx, projectID); err != nil {
		return fmt.Errorf("failed to recompute project stats: %w", err)
	}
	return nil
}
