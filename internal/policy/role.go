// Package policy holds the authorization rules shared by every request
// handler: the static role grants, the tenant scoping rule and the ownership
// rule for writes. Every function here is pure and safe for concurrent use.
package policy

import (
	"fmt"
	"strings"
)

// Role is the organization-level role carried by a principal.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Roles lists the known roles from most to least privileged.
var Roles = []Role{RoleOwner, RoleAdmin, RoleViewer}

// ParseRole normalizes raw and reports an error for anything outside the
// closed set of roles.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return role, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Resource is the kind of a protected entity.
type Resource string

const (
	ResourceTask         Resource = "task"
	ResourceUser         Resource = "user"
	ResourceOrganization Resource = "organization"
	ResourceAudit        Resource = "audit"
)

// Action is an operation on a resource kind.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resources and Actions enumerate the full (resource, action) space.
var (
	Resources = []Resource{ResourceTask, ResourceUser, ResourceOrganization, ResourceAudit}
	Actions   = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
)

// ParseResource validates a resource kind received from outside the process.
func ParseResource(raw string) (Resource, error) {
	res := Resource(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Resources {
		if res == known {
			return res, nil
		}
	}
	return "", fmt.Errorf("%w: resource %q", ErrInvalidRequest, raw)
}

// ParseAction validates an action received from outside the process.
func ParseAction(raw string) (Action, error) {
	act := Action(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Actions {
		if act == known {
			return act, nil
		}
	}
	return "", fmt.Errorf("%w: action %q", ErrInvalidRequest, raw)
}

// Principal is the authenticated actor of a request.
type Principal struct {
	ID             string `json:"id"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organization_id"`
}

// ResourceDescriptor is the projection of a concrete entity the evaluators
// need: the owning organization and the creator or owner id.
type ResourceDescriptor struct {
	OrganizationID string
	OwnerID        string
}
