package project

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

type Status string

const (
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// TaskStats is the cached task breakdown of a project, stored as JSONB.
type TaskStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Incomplete int `json:"incomplete"`
}

func (t TaskStats) Value() (driver.Value, error) {
	return sonic.Marshal(t)
}

func (t *TaskStats) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TaskStats{}
		return nil
	case []byte:
		return sonic.Unmarshal(v, t)
	case string:
		return sonic.UnmarshalString(v, t)
	default:
		return fmt.Errorf("unsupported task_stats type %T", src)
	}
}

// Derived groups the fields of a project that are computed from its task set.
// They are written only by the stats engine.
type Derived struct {
	TaskStats TaskStats
	Progress  int
	Status    Status
}

// Project is a named collection of tasks with a derived progress snapshot.
type Project struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Status      Status    `json:"status" db:"status"`
	Progress    int       `json:"progress" db:"progress"`
	TaskStats   TaskStats `json:"taskStats" db:"task_stats"`
	CreatedBy   uuid.UUID `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

func (p *Project) Derived() Derived {
	return Derived{TaskStats: p.TaskStats, Progress: p.Progress, Status: p.Status}
}

func (p *Project) ApplyDerived(d Derived, at time.Time) {
	p.TaskStats = d.TaskStats
	p.Progress = d.Progress
	p.Status = d.Status
	p.UpdatedAt = at
}

// CreateProjectRequest captures payload for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectRequest captures payload for updating a project. Derived fields
// are not part of it.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpdateFields are the user-editable columns of a project.
type UpdateFields struct {
	Name        *string
	Slug        *string
	Description *string
}

const fallbackSlug = "project"

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses every run of non-alphanumerics to "-".
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// SlugCandidate returns the n-th candidate for base: base itself, then base-2, base-3...
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
