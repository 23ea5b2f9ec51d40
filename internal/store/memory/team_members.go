package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/services/teammember"
)

type TeamMemberRepo struct {
	s *Store
}

var _ teammember.Repository = (*TeamMemberRepo)(nil)

func (s *Store) memberView(m *teammember.TeamMember) *teammember.TeamMember {
	c := *m
	c.TaskCount = s.countAssigned(m.Name)
	return &c
}

func (r *TeamMemberRepo) Create(_ context.Context, m *teammember.TeamMember) (*teammember.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.members {
		if existing.Name == m.Name || existing.Email == m.Email {
			return nil, teammember.ErrTeamMemberAlreadyExists
		}
	}

	created := *m
	created.ID = uuid.New()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.s.clock.Now()
	}
	created.UpdatedAt = created.CreatedAt
	r.s.members[created.ID] = &created
	return r.s.memberView(&created), nil
}

func (r *TeamMemberRepo) GetByID(_ context.Context, id uuid.UUID) (*teammember.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[id]
	if !ok {
		return nil, teammember.ErrTeamMemberNotFound
	}
	return r.s.memberView(m), nil
}

func (r *TeamMemberRepo) GetByName(_ context.Context, name string) (*teammember.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.members {
		if m.Name == name {
			return r.s.memberView(m), nil
		}
	}
	return nil, teammember.ErrTeamMemberNotFound
}

// List returns members ordered by name.
func (r *TeamMemberRepo) List(_ context.Context) ([]*teammember.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*teammember.TeamMember, 0, len(r.s.members))
	for _, m := range r.s.members {
		out = append(out, r.s.memberView(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *TeamMemberRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[id]; !ok {
		return teammember.ErrTeamMemberNotFound
	}
	delete(r.s.members, id)
	return nil
}

func (r *TeamMemberRepo) DefaultMaxCapacity(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.defaultMaxCapacity, nil
}

func (r *TeamMemberRepo) SetMaxCapacityAll(_ context.Context, maxCapacity int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.defaultMaxCapacity = maxCapacity
	for _, m := range r.s.members {
		m.MaxCapacity = maxCapacity
		m.UpdatedAt = at
	}
	return nil
}
