package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskgate.org/internal/ids"
	"taskgate.org/internal/policy"
)

// OrganizationInput is the payload for creating an organization. An empty
// ParentID nests the new organization under the principal's.
type OrganizationInput struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

// OrganizationPatch updates the fields that are set.
type OrganizationPatch struct {
	Name *string `json:"name"`
}

// ListOrganizations returns the principal's organization and, for owners and
// admins, its direct children.
func (s *Service) ListOrganizations(ctx context.Context, pr policy.Principal) ([]Organization, error) {
	if err := s.policy.Authorize(pr, policy.ResourceOrganization, policy.ActionRead); err != nil {
		return nil, err
	}
	scope := policy.OrgListScope(pr.Role, pr.OrganizationID)
	if scope.Mode == policy.ScopeNone {
		return []Organization{}, nil
	}
	return s.store.ListOrganizations(ctx, scope)
}

// GetOrganization returns the principal's own organization. Other
// organizations, children included, are denied.
func (s *Service) GetOrganization(ctx context.Context, pr policy.Principal, id string) (Organization, error) {
	if err := s.policy.Authorize(pr, policy.ResourceOrganization, policy.ActionRead); err != nil {
		return Organization{}, err
	}
	org, err := s.store.GetOrganization(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	if err := s.policy.AuthorizeAccess(pr, policy.ResourceOrganization, org.Descriptor()); err != nil {
		return Organization{}, err
	}
	return org, nil
}

// CreateOrganization creates a child of an organization the principal can
// access.
func (s *Service) CreateOrganization(ctx context.Context, pr policy.Principal, in OrganizationInput) (Organization, error) {
	if err := s.policy.Authorize(pr, policy.ResourceOrganization, policy.ActionCreate); err != nil {
		return Organization{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Organization{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	parentID := strings.TrimSpace(in.ParentID)
	if parentID == "" {
		parentID = pr.OrganizationID
	}
	if err := s.policy.AuthorizeCreate(pr, policy.ResourceOrganization, parentID); err != nil {
		return Organization{}, err
	}
	if _, err := s.store.GetOrganization(ctx, parentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Organization{}, fmt.Errorf("%w: parent organization %s does not exist", ErrInvalidInput, parentID)
		}
		return Organization{}, err
	}

	now := s.timestamp()
	org := Organization{
		ID:        ids.New(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return Organization{}, err
	}
	s.recordAudit(ctx, pr, AuditCreate, policy.ResourceOrganization, org.ID, "Created organization: "+org.Name)
	return org, nil
}

// UpdateOrganization renames the principal's organization.
func (s *Service) UpdateOrganization(ctx context.Context, pr policy.Principal, id string, patch OrganizationPatch) (Organization, error) {
	if err := s.policy.Authorize(pr, policy.ResourceOrganization, policy.ActionUpdate); err != nil {
		return Organization{}, err
	}
	org, err := s.store.GetOrganization(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	if err := s.policy.AuthorizeModify(pr, policy.ResourceOrganization, policy.ActionUpdate, org.Descriptor()); err != nil {
		return Organization{}, err
	}
	if v := trimmed(patch.Name); v != nil {
		if *v == "" {
			return Organization{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		org.Name = *v
	}
	org.UpdatedAt = s.timestamp()
	if err := s.store.UpdateOrganization(ctx, org); err != nil {
		return Organization{}, err
	}
	s.recordAudit(ctx, pr, AuditUpdate, policy.ResourceOrganization, org.ID, "Updated organization: "+org.Name)
	return org, nil
}

// DeleteOrganization removes an organization without members or children.
func (s *Service) DeleteOrganization(ctx context.Context, pr policy.Principal, id string) error {
	if err := s.policy.Authorize(pr, policy.ResourceOrganization, policy.ActionDelete); err != nil {
		return err
	}
	org, err := s.store.GetOrganization(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.AuthorizeModify(pr, policy.ResourceOrganization, policy.ActionDelete, org.Descriptor()); err != nil {
		return err
	}
	members, err := s.store.CountMembers(ctx, id)
	if err != nil {
		return err
	}
	if members > 0 {
		return fmt.Errorf("%w: organization has %d members", ErrConflict, members)
	}
	children, err := s.store.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("%w: organization has %d child organizations", ErrConflict, children)
	}
	if err := s.store.DeleteOrganization(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, pr, AuditDelete, policy.ResourceOrganization, id, "Deleted organization: "+org.Name)
	return nil
}
