package workspace

import (
	"context"

	"taskgate.org/internal/policy"
)

// UserFilter narrows a user listing. OrganizationID is required; a non-empty
// UserID restricts the result to that user.
type UserFilter struct {
	OrganizationID string
	UserID         string
}

// TaskFilter narrows a task listing. OrganizationID is required. VisibleTo,
// when set, keeps only tasks assigned to or created by that user.
type TaskFilter struct {
	OrganizationID string
	VisibleTo      string
	Status         TaskStatus
	Category       string
}

// AuditFilter narrows an audit listing. OrganizationID is required.
type AuditFilter struct {
	OrganizationID string
	UserID         string
	Resource       string
	Limit          int
}

// Store persists workspace resources. Implementations report missing rows as
// ErrNotFound and uniqueness or reference violations as ErrConflict. Stores do
// no authorization; Service does.
type Store interface {
	CreateOrganization(ctx context.Context, org Organization) error
	GetOrganization(ctx context.Context, id string) (Organization, error)
	ListOrganizations(ctx context.Context, scope policy.ListScope) ([]Organization, error)
	UpdateOrganization(ctx context.Context, org Organization) error
	DeleteOrganization(ctx context.Context, id string) error
	CountMembers(ctx context.Context, orgID string) (int, error)
	CountChildren(ctx context.Context, orgID string) (int, error)

	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]User, error)
	UpdateUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id string) error

	CreateTask(ctx context.Context, t Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]Task, error)
	UpdateTask(ctx context.Context, t Task) error
	DeleteTask(ctx context.Context, id string) error

	AppendAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// ClampAuditLimit bounds an audit page size; zero or negative means the
// default.
func ClampAuditLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultAuditLimit
	case limit > maxAuditLimit:
		return maxAuditLimit
	}
	return limit
}
