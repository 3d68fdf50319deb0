package workspace

import (
	"context"
	"strings"

	"taskgate.org/internal/policy"
)

// AuditQuery filters ListAudit.
type AuditQuery struct {
	UserID   string
	Resource string
	Limit    int
}

// ListAudit returns the newest audit entries of the principal's organization.
func (s *Service) ListAudit(ctx context.Context, pr policy.Principal, q AuditQuery) ([]AuditEntry, error) {
	if err := s.policy.Authorize(pr, policy.ResourceAudit, policy.ActionRead); err != nil {
		return nil, err
	}
	if pr.OrganizationID == "" {
		return []AuditEntry{}, nil
	}
	f := AuditFilter{
		OrganizationID: pr.OrganizationID,
		UserID:         strings.TrimSpace(q.UserID),
		Limit:          ClampAuditLimit(q.Limit),
	}
	if r := strings.TrimSpace(q.Resource); r != "" {
		res, err := policy.ParseResource(r)
		if err != nil {
			return nil, err
		}
		f.Resource = string(res)
	}
	return s.store.ListAudit(ctx, f)
}

// SubscribeAudit streams audit entries of the principal's organization as
// they are recorded, until ctx ends. Resource narrows the stream when set.
func (s *Service) SubscribeAudit(ctx context.Context, pr policy.Principal, resource string) (<-chan AuditEntry, error) {
	if err := s.policy.Authorize(pr, policy.ResourceAudit, policy.ActionRead); err != nil {
		return nil, err
	}
	if s.events == nil {
		return nil, ErrUnavailable
	}
	var want string
	if r := strings.TrimSpace(resource); r != "" {
		res, err := policy.ParseResource(r)
		if err != nil {
			return nil, err
		}
		want = string(res)
	}
	org := pr.OrganizationID
	return s.events.Subscribe(ctx, func(e AuditEntry) bool {
		if org == "" || e.OrganizationID != org {
			return false
		}
		return want == "" || e.Resource == want
	}), nil
}
