package policy

// CanAccessResource reports whether a principal of the given role in
// principalOrgID may see a resource owned by resourceOrgID. Visibility is
// limited to the principal's own organization for every role; parent
// organizations get no access to their children here.
func CanAccessResource(role Role, principalOrgID, resourceOrgID string) bool {
	if !role.Valid() || principalOrgID == "" {
		return false
	}
	return principalOrgID == resourceOrgID
}

// CanModifyResource reports whether the principal may mutate or delete a
// specific resource instance. Owners write anything in their organization,
// admins only what they own, viewers nothing.
func CanModifyResource(role Role, principalOrgID, resourceOrgID, resourceOwnerID, principalID string) bool {
	if !CanAccessResource(role, principalOrgID, resourceOrgID) {
		return false
	}
	switch role {
	case RoleOwner:
		return true
	case RoleAdmin:
		return principalID != "" && resourceOwnerID == principalID
	default:
		return false
	}
}

// ViewerCanSeeInstance is the extra row filter applied to viewers when
// listing or reading tasks: the task must be assigned to or created by them.
// Other roles are unaffected.
func ViewerCanSeeInstance(role Role, assignedToID, createdByID, principalID string) bool {
	if role != RoleViewer {
		return true
	}
	if principalID == "" {
		return false
	}
	return principalID == assignedToID || principalID == createdByID
}

// ScopeMode selects how an organization list is filtered.
type ScopeMode int

const (
	// ScopeNone matches nothing.
	ScopeNone ScopeMode = iota
	// ScopeExact matches the organization itself.
	ScopeExact
	// ScopeWithChildren matches the organization and its direct children.
	ScopeWithChildren
)

func (m ScopeMode) String() string {
	switch m {
	case ScopeExact:
		return "exact"
	case ScopeWithChildren:
		return "with_children"
	default:
		return "none"
	}
}

// ListScope describes which organizations a principal sees when listing.
type ListScope struct {
	Mode           ScopeMode
	OrganizationID string
}

// Includes evaluates the scope against an organization id and its parent id.
func (s ListScope) Includes(orgID, parentID string) bool {
	if s.OrganizationID == "" {
		return false
	}
	switch s.Mode {
	case ScopeExact:
		return orgID == s.OrganizationID
	case ScopeWithChildren:
		return orgID == s.OrganizationID || parentID == s.OrganizationID
	default:
		return false
	}
}

// OrgListScope returns the organization listing scope for a role. This is
// separate from CanAccessResource: owners and admins list their direct
// child organizations, yet cannot open resources inside them.
func OrgListScope(role Role, principalOrgID string) ListScope {
	if principalOrgID == "" {
		return ListScope{Mode: ScopeNone}
	}
	switch role {
	case RoleViewer:
		return ListScope{Mode: ScopeExact, OrganizationID: principalOrgID}
	case RoleOwner, RoleAdmin:
		return ListScope{Mode: ScopeWithChildren, OrganizationID: principalOrgID}
	default:
		return ListScope{Mode: ScopeNone}
	}
}
