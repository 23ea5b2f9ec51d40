package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/services/user"
)

type UserRepo struct {
	s *Store
}

var _ user.Repository = (*UserRepo)(nil)

func cloneUser(u *user.User) *user.User {
	c := *u
	if u.SessionToken != nil {
		token := *u.SessionToken
		c.SessionToken = &token
	}
	c.SessionCreatedAt = timePtr(u.SessionCreatedAt)
	c.SessionExpiresAt = timePtr(u.SessionExpiresAt)
	c.LastActivity = timePtr(u.LastActivity)
	c.LastLogin = timePtr(u.LastLogin)
	return &c
}

func (r *UserRepo) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := user.NormalizeIdentifier(u.Email)
	username := user.NormalizeIdentifier(u.Username)
	for _, existing := range r.s.users {
		if existing.Email == email || existing.Username == username {
			return nil, user.ErrUserAlreadyExists
		}
	}

	now := r.s.clock.Now()
	created := cloneUser(u)
	created.ID = uuid.New()
	created.Email = email
	created.Username = username
	created.CreatedAt = now
	created.UpdatedAt = now

	r.s.users[created.ID] = created
	r.s.userOrder = append(r.s.userOrder, created.ID)
	return cloneUser(created), nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByIdentifier(_ context.Context, identifier string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	identifier = user.NormalizeIdentifier(identifier)
	for _, id := range r.s.userOrder {
		u := r.s.users[id]
		if u.Email == identifier || u.Username == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepo) GetBySessionToken(_ context.Context, token string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u := r.s.userByToken(token); u != nil {
		return cloneUser(u), nil
	}
	return nil, user.ErrUserNotFound
}

func (s *Store) userByToken(token string) *user.User {
	if token == "" {
		return nil
	}
	for _, u := range s.users {
		if u.SessionToken != nil && *u.SessionToken == token {
			return u
		}
	}
	return nil
}

// List returns users newest first.
func (r *UserRepo) List(_ context.Context) ([]*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*user.User, 0, len(r.s.userOrder))
	for i := len(r.s.userOrder) - 1; i >= 0; i-- {
		out = append(out, cloneUser(r.s.users[r.s.userOrder[i]]))
	}
	return out, nil
}

func (r *UserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return user.ErrUserNotFound
	}
	delete(r.s.users, id)
	r.s.userOrder = removeID(r.s.userOrder, id)
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.PasswordHash = hash
	clearSession(u)
	u.UpdatedAt = at
	return nil
}

func (r *UserRepo) StartSession(_ context.Context, id uuid.UUID, sess user.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	token := sess.Token
	u.SessionToken = &token
	u.SessionCreatedAt = timePtr(&sess.CreatedAt)
	u.SessionExpiresAt = timePtr(&sess.ExpiresAt)
	u.LastActivity = timePtr(&sess.CreatedAt)
	u.LastLogin = timePtr(&sess.CreatedAt)
	u.UpdatedAt = sess.CreatedAt
	return nil
}

func (r *UserRepo) ExtendSession(_ context.Context, token string, expiresAt, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.s.userByToken(token)
	if u == nil {
		return false, nil
	}
	u.SessionExpiresAt = timePtr(&expiresAt)
	u.LastActivity = timePtr(&at)
	return true, nil
}

func (r *UserRepo) ClearSession(_ context.Context, id uuid.UUID, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.SessionToken == nil || *u.SessionToken != token {
		return false, nil
	}
	clearSession(u)
	return true, nil
}

func clearSession(u *user.User) {
	u.SessionToken = nil
	u.SessionCreatedAt = nil
	u.SessionExpiresAt = nil
	u.LastActivity = nil
}

func (r *UserRepo) TouchActivity(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[id]; ok {
		u.LastActivity = timePtr(&at)
	}
	return nil
}

func (r *UserRepo) Counts(_ context.Context, now time.Time) (*user.Counts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var c user.Counts
	for _, u := range r.s.users {
		c.TotalUsers++
		switch u.Role {
		case user.RoleSuperAdmin:
			c.TotalSuperadmins++
		case user.RoleManager:
			c.TotalManagers++
		}
		if u.SessionExpiresAt != nil && u.SessionExpiresAt.After(now) {
			c.TotalOnline++
		}
	}
	return &c, nil
}
