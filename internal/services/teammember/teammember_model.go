package teammember

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curaious/dashboard/internal/services/capacity"
)

// TeamMember is a person tasks can be assigned to. Tasks reference a member
// by name, so TaskCount is the number of tasks whose assignee equals Name.
type TeamMember struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Role        string    `json:"role" db:"role"`
	MaxCapacity int       `json:"maxCapacity" db:"max_capacity"`
	TaskCount   int       `json:"taskCount" db:"task_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	CapacityPercent int           `json:"capacity" db:"-"`
	Tier            capacity.Tier `json:"tier" db:"-"`
	Available       bool          `json:"available" db:"-"`
}

// Derive fills the capacity fields from TaskCount and MaxCapacity.
func (m *TeamMember) Derive() *TeamMember {
	m.CapacityPercent = capacity.Percent(m.TaskCount, m.MaxCapacity)
	m.Tier = capacity.TierOf(m.CapacityPercent)
	m.Available = capacity.IsAvailable(m.TaskCount, m.MaxCapacity)
	return m
}

type CreateTeamMemberRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	MaxCapacity *int   `json:"maxCapacity,omitempty"`
}

type SetCapacityRequest struct {
	MaxCapacity int `json:"maxCapacity"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
