package policy

// Permission is a coarse (resource, action) grant.
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

func (p Permission) String() string {
	return string(p.Resource) + "." + string(p.Action)
}

var crud = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// grantTable is the authoritative grant table. It is only read by init.
var grantTable = map[Role]map[Resource][]Action{
	RoleOwner: {
		ResourceTask:         crud,
		ResourceUser:         crud,
		ResourceOrganization: crud,
		ResourceAudit:        {ActionRead},
	},
	RoleAdmin: {
		ResourceTask:         crud,
		ResourceUser:         {ActionRead, ActionUpdate},
		ResourceOrganization: {ActionRead},
		ResourceAudit:        {ActionRead},
	},
	RoleViewer: {
		ResourceTask:         {ActionRead},
		ResourceUser:         {ActionRead},
		ResourceOrganization: {ActionRead},
	},
}

// grants is built once at init and never written afterwards.
var grants = buildGrants(grantTable)

func buildGrants(table map[Role]map[Resource][]Action) map[Role]map[Permission]struct{} {
	out := make(map[Role]map[Permission]struct{}, len(table))
	for role, resources := range table {
		set := make(map[Permission]struct{})
		for res, actions := range resources {
			for _, act := range actions {
				set[Permission{Resource: res, Action: act}] = struct{}{}
			}
		}
		out[role] = set
	}
	return out
}

// HasPermission reports whether role is granted action on every resource of
// the given kind. Unknown roles have no grants.
func HasPermission(role Role, resource Resource, action Action) bool {
	_, ok := grants[role][Permission{Resource: resource, Action: action}]
	return ok
}

// Grants returns the permissions of role in a stable order. The result is a
// fresh slice owned by the caller.
func Grants(role Role) []Permission {
	set, ok := grants[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(set))
	for _, res := range Resources {
		for _, act := range Actions {
			p := Permission{Resource: res, Action: act}
			if _, ok := set[p]; ok {
				out = append(out, p)
			}
		}
	}
	return out
}
