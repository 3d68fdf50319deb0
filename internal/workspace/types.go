// Package workspace holds the tenant resources (organizations, users, tasks,
// audit entries) and the service that enforces the access policy on them.
package workspace

import (
	"fmt"
	"strings"
	"time"

	"taskgate.org/internal/policy"
)

// Organization is a tenant. A child organization points at its parent.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a member of exactly one organization.
type User struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	PasswordHash   string      `json:"-"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Role           policy.Role `json:"role"`
	OrganizationID string      `json:"organization_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// ParseTaskStatus validates a status; empty input yields StatusTodo.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "":
		return StatusTodo, nil
	case StatusTodo, StatusInProgress, StatusDone:
		return s, nil
	}
	return "", fmt.Errorf("%w: unsupported status %q", ErrInvalidInput, raw)
}

// TaskPriority ranks tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// ParseTaskPriority validates a priority; empty input yields PriorityMedium.
func ParseTaskPriority(raw string) (TaskPriority, error) {
	p := TaskPriority(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("%w: unsupported priority %q", ErrInvalidInput, raw)
}

// Task is a unit of work owned by an organization.
type Task struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	Category       string       `json:"category"`
	AssignedToID   string       `json:"assigned_to_id,omitempty"`
	CreatedByID    string       `json:"created_by_id"`
	OrganizationID string       `json:"organization_id"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Descriptor projects the task for the policy: the creator owns it.
func (t Task) Descriptor() policy.ResourceDescriptor {
	return policy.ResourceDescriptor{OrganizationID: t.OrganizationID, OwnerID: t.CreatedByID}
}

// Descriptor projects the user for the policy: a user record is owned by
// the user it describes.
func (u User) Descriptor() policy.ResourceDescriptor {
	return policy.ResourceDescriptor{OrganizationID: u.OrganizationID, OwnerID: u.ID}
}

// Descriptor projects the organization for the policy. Organizations have
// no individual owner.
func (o Organization) Descriptor() policy.ResourceDescriptor {
	return policy.ResourceDescriptor{OrganizationID: o.ID}
}

// Audit actions recorded for mutations.
const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// AuditEntry is an append-only record of a mutation.
type AuditEntry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	Action         string    `json:"action"`
	Resource       string    `json:"resource"`
	ResourceID     string    `json:"resource_id"`
	Details        string    `json:"details,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
