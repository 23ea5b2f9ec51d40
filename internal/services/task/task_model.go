package task

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

func (s Status) IsValid() bool {
	return s == StatusIncomplete || s == StatusComplete
}

// Task belongs to a project and is assigned to a team member by name.
type Task struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ProjectID      uuid.UUID  `json:"projectId" db:"project_id"`
	Name           string     `json:"name" db:"name"`
	Status         Status     `json:"status" db:"status"`
	AssignedTo     string     `json:"assignedTo" db:"assigned_to"`
	CreatedBy      uuid.UUID  `json:"createdBy" db:"created_by"`
	LastModifiedBy *uuid.UUID `json:"lastModifiedBy,omitempty" db:"last_modified_by"`
	CompletedAt    *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// SetStatus moves the task to status. CompletedAt is set on the transition to
// complete and cleared on the transition away. It reports whether the status
// changed.
func (t *Task) SetStatus(status Status, at time.Time) bool {
	if t.Status == status {
		return false
	}
	t.Status = status
	if status == StatusComplete {
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	return true
}

type CreateTaskRequest struct {
	Name       string `json:"name"`
	AssignedTo string `json:"assignedTo"`
	Status     Status `json:"status,omitempty"`
}

type UpdateTaskRequest struct {
	Name       *string `json:"name,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty"`
	Status     *Status `json:"status,omitempty"`
}

type SetStatusRequest struct {
	Status Status `json:"status"`
}
