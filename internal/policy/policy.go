package policy

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means the role is never allowed the action on the
	// resource kind.
	ErrPermissionDenied = errors.New("policy: permission denied")
	// ErrAccessDenied means the resource lies outside the principal's tenant.
	ErrAccessDenied = errors.New("policy: access denied")
	// ErrModificationDenied means the resource is visible but not writable
	// by the principal.
	ErrModificationDenied = errors.New("policy: modification denied")

	ErrUnknownRole    = errors.New("policy: unknown role")
	ErrInvalidRequest = errors.New("policy: invalid request")
)

// Check names the evaluator that produced a decision.
type Check string

const (
	CheckPermission Check = "permission"
	CheckAccess     Check = "access"
	CheckModify     Check = "modify"
	CheckVisibility Check = "visibility"
)

// Decision is the explained outcome of an authorization check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Check   Check  `json:"check"`
	Reason  string `json:"reason,omitempty"`
}

// Err converts a negative decision into the matching sentinel error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	var base error
	switch d.Check {
	case CheckPermission:
		base = ErrPermissionDenied
	case CheckModify:
		base = ErrModificationDenied
	default:
		base = ErrAccessDenied
	}
	if d.Reason == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, d.Reason)
}

// Observer is notified of every decision taken through a Policy.
type Observer func(resource Resource, action Action, d Decision)

// Policy is the call surface request handlers use. The zero value is ready
// to use.
type Policy struct {
	observe Observer
}

// New returns a Policy reporting decisions to observe, which may be nil.
func New(observe Observer) Policy {
	return Policy{observe: observe}
}

func (p Policy) report(resource Resource, action Action, d Decision) Decision {
	if p.observe != nil {
		p.observe(resource, action, d)
	}
	return d
}

// Explain runs the coarse permission check and, when a descriptor is given,
// the instance-level check appropriate for the action: reads need access,
// writes on existing instances need modification rights.
func (p Policy) Explain(pr Principal, resource Resource, action Action, d *ResourceDescriptor) Decision {
	if !HasPermission(pr.Role, resource, action) {
		return p.report(resource, action, Decision{
			Check:  CheckPermission,
			Reason: fmt.Sprintf("role %q may not %s %s", pr.Role, action, resource),
		})
	}
	if d == nil {
		return p.report(resource, action, Decision{Allowed: true, Check: CheckPermission})
	}
	if !CanAccessResource(pr.Role, pr.OrganizationID, d.OrganizationID) {
		return p.report(resource, action, Decision{
			Check:  CheckAccess,
			Reason: fmt.Sprintf("%s belongs to another organization", resource),
		})
	}
	if action == ActionRead || action == ActionCreate {
		return p.report(resource, action, Decision{Allowed: true, Check: CheckAccess})
	}
	if !CanModifyResource(pr.Role, pr.OrganizationID, d.OrganizationID, d.OwnerID, pr.ID) {
		return p.report(resource, action, Decision{
			Check:  CheckModify,
			Reason: fmt.Sprintf("role %q may only %s %s it owns", pr.Role, action, resource),
		})
	}
	return p.report(resource, action, Decision{Allowed: true, Check: CheckModify})
}

// Authorize is the coarse check of the permission table.
func (p Policy) Authorize(pr Principal, resource Resource, action Action) error {
	return p.Explain(pr, resource, action, nil).Err()
}

// AuthorizeAccess checks that the principal may see an instance of resource.
func (p Policy) AuthorizeAccess(pr Principal, resource Resource, d ResourceDescriptor) error {
	ok := CanAccessResource(pr.Role, pr.OrganizationID, d.OrganizationID)
	dec := Decision{Allowed: ok, Check: CheckAccess}
	if !ok {
		dec.Reason = fmt.Sprintf("%s belongs to another organization", resource)
	}
	return p.report(resource, ActionRead, dec).Err()
}

// AuthorizeVisible applies the viewer row filter to a single instance.
func (p Policy) AuthorizeVisible(pr Principal, resource Resource, assignedToID, createdByID string) error {
	ok := ViewerCanSeeInstance(pr.Role, assignedToID, createdByID, pr.ID)
	dec := Decision{Allowed: ok, Check: CheckVisibility}
	if !ok {
		dec.Reason = fmt.Sprintf("%s is neither assigned to nor created by the viewer", resource)
	}
	return p.report(resource, ActionRead, dec).Err()
}

// AuthorizeModify runs both write checks: the role must hold the action and
// the principal must be allowed to modify this instance.
func (p Policy) AuthorizeModify(pr Principal, resource Resource, action Action, d ResourceDescriptor) error {
	return p.Explain(pr, resource, action, &d).Err()
}

// AuthorizeCreate checks the create grant and that the new instance lands in
// the principal's organization.
func (p Policy) AuthorizeCreate(pr Principal, resource Resource, orgID string) error {
	return p.Explain(pr, resource, ActionCreate, &ResourceDescriptor{OrganizationID: orgID}).Err()
}
