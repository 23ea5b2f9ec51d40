// Package memory keeps every repository in process memory. It backs STORE=memory
// and the service tests. Each call holds a single lock, which gives the same
// single-row atomicity the Postgres repositories rely on.
package memory

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/services/activity"
	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/task"
	"github.com/curaious/dashboard/internal/services/teammember"
	"github.com/curaious/dashboard/internal/services/user"
)

type Store struct {
	mu    sync.RWMutex
	clock clock.Clock

	users     map[uuid.UUID]*user.User
	userOrder []uuid.UUID

	projects     map[uuid.UUID]*project.Project
	projectOrder []uuid.UUID

	tasks     map[uuid.UUID]*task.Task
	taskOrder []uuid.UUID

	members            map[uuid.UUID]*teammember.TeamMember
	defaultMaxCapacity int

	activity []*activity.Entry
}

func New(clk clock.Clock, defaultMaxCapacity int) *Store {
	return &Store{
		clock:              clk,
		users:              map[uuid.UUID]*user.User{},
		projects:           map[uuid.UUID]*project.Project{},
		tasks:              map[uuid.UUID]*task.Task{},
		members:            map[uuid.UUID]*teammember.TeamMember{},
		defaultMaxCapacity: defaultMaxCapacity,
	}
}

func (s *Store) Users() *UserRepo {
	return &UserRepo{s: s}
}

func (s *Store) Projects() *ProjectRepo {
	return &ProjectRepo{s: s}
}

func (s *Store) Tasks() *TaskRepo {
	return &TaskRepo{s: s}
}

func (s *Store) TeamMembers() *TeamMemberRepo {
	return &TeamMemberRepo{s: s}
}

func (s *Store) Activity() *ActivityRepo {
	return &ActivityRepo{s: s}
}

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
