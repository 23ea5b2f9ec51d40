package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/services/activity"
)

type ActivityRepo struct {
	s *Store
}

var _ activity.Repository = (*ActivityRepo)(nil)

func (r *ActivityRepo) Create(_ context.Context, e *activity.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *e
	c.ID = uuid.New()
	r.s.activity = append(r.s.activity, &c)
	return nil
}

// List returns at most limit entries, newest first.
func (r *ActivityRepo) List(_ context.Context, limit int) ([]*activity.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*activity.Entry, 0, min(limit, len(r.s.activity)))
	for i := len(r.s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		c := *r.s.activity[i]
		out = append(out, &c)
	}
	return out, nil
}
