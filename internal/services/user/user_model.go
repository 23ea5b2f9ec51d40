package user

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleManager    UserRole = "manager"
	RoleSuperAdmin UserRole = "superadmin"
)

// Level orders roles: user < manager < superadmin. Unknown roles rank below user.
func (r UserRole) Level() int {
	switch r {
	case RoleUser:
		return 0
	case RoleManager:
		return 1
	case RoleSuperAdmin:
		return 2
	default:
		return -1
	}
}

func (r UserRole) IsValid() bool {
	return r.Level() >= 0
}

// AtLeast reports whether r grants everything min grants.
func (r UserRole) AtLeast(min UserRole) bool {
	return r.IsValid() && r.Level() >= min.Level()
}

const createdBySystem = "system"

// CreatedBy records who created a record: the system itself or a user.
type CreatedBy struct {
	userID uuid.UUID
	system bool
}

func System() CreatedBy {
	return CreatedBy{system: true}
}

func ByUser(id uuid.UUID) CreatedBy {
	return CreatedBy{userID: id}
}

func (c CreatedBy) IsSystem() bool {
	return c.system
}

// UserID returns the creating user, false when created by the system.
func (c CreatedBy) UserID() (uuid.UUID, bool) {
	if c.system {
		return uuid.Nil, false
	}
	return c.userID, true
}

func (c CreatedBy) String() string {
	if c.system {
		return createdBySystem
	}
	return c.userID.String()
}

func ParseCreatedBy(raw string) (CreatedBy, error) {
	if raw == createdBySystem || raw == "" {
		return System(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return CreatedBy{}, fmt.Errorf("invalid created_by %q: %w", raw, err)
	}
	return ByUser(id), nil
}

func (c CreatedBy) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *CreatedBy) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		raw = ""
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported created_by type %T", src)
	}

	parsed, err := ParseCreatedBy(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c CreatedBy) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(c.String())
}

func (c *CreatedBy) UnmarshalJSON(data []byte) error {
	var raw string
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCreatedBy(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`

	SessionToken     *string    `db:"session_token" json:"-"`
	SessionCreatedAt *time.Time `db:"session_created_at" json:"-"`
	SessionExpiresAt *time.Time `db:"session_expires_at" json:"-"`
	LastActivity     *time.Time `db:"last_activity" json:"-"`
	LastLogin        *time.Time `db:"last_login" json:"-"`

	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedBy CreatedBy `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasActiveSession reports whether the stored token is still valid at now.
func (u *User) HasActiveSession(now time.Time) bool {
	return u.SessionToken != nil && *u.SessionToken != "" &&
		u.SessionExpiresAt != nil && u.SessionExpiresAt.After(now)
}

// PublicUser is the projection that may leave the server. It never carries the
// password hash or the session token.
type PublicUser struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Role         UserRole   `json:"role"`
	IsActive     bool       `json:"isActive"`
	IsOnline     bool       `json:"isOnline"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
	CreatedBy    CreatedBy  `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) Public(now time.Time) PublicUser {
	return PublicUser{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		Name:         u.Name,
		Role:         u.Role,
		IsActive:     u.IsActive,
		IsOnline:     u.HasActiveSession(now),
		LastLogin:    u.LastLogin,
		LastActivity: u.LastActivity,
		CreatedBy:    u.CreatedBy,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Session is the single session embedded in a user record.
type Session struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Counts struct {
	TotalUsers       int `db:"total_users" json:"totalUsers"`
	TotalSuperadmins int `db:"total_superadmins" json:"totalSuperadmins"`
	TotalManagers    int `db:"total_managers" json:"totalManagers"`
	TotalOnline      int `db:"total_online" json:"totalOnline"`
}

type CreateUserRequest struct {
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// NormalizeIdentifier lowercases an email or username for lookup and storage.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
