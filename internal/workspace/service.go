package workspace

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskgate.org/internal/audit"
	"taskgate.org/internal/ids"
	"taskgate.org/internal/obs"
	"taskgate.org/internal/policy"
	"taskgate.org/internal/stream"
)

// Service applies the access policy to every workspace operation. Callers
// pass the authenticated principal explicitly.
type Service struct {
	store  Store
	policy policy.Policy
	now    func() time.Time
	events *stream.Hub[AuditEntry]
}

// Option configures Service.
type Option func(*Service) error

// WithPolicy sets the policy used for decisions, typically one reporting to
// metrics.
func WithPolicy(p policy.Policy) Option {
	return func(s *Service) error {
		s.policy = p
		return nil
	}
}

// WithEvents publishes every recorded audit entry to hub.
func WithEvents(hub *stream.Hub[AuditEntry]) Option {
	return func(s *Service) error {
		if hub == nil {
			return errors.New("workspace: event hub is nil")
		}
		s.events = hub
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService wires a store.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("workspace: store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Policy returns the policy the service decides with.
func (s *Service) Policy() policy.Policy { return s.policy }

func (s *Service) timestamp() time.Time { return s.now().UTC() }

// recordAudit persists an audit entry and mirrors it to the audit log stream.
// Failures are logged, never returned: the mutation already happened.
func (s *Service) recordAudit(ctx context.Context, pr policy.Principal, action string, resource policy.Resource, resourceID, details string) {
	client := audit.ClientFromContext(ctx)
	entry := AuditEntry{
		ID:             ids.New(),
		UserID:         pr.ID,
		OrganizationID: pr.OrganizationID,
		Action:         action,
		Resource:       string(resource),
		ResourceID:     resourceID,
		Details:        details,
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
		CreatedAt:      s.timestamp(),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		obs.Error("audit append failed", err, map[string]any{
			"resource":    entry.Resource,
			"resource_id": resourceID,
			"action":      action,
		})
	}
	if s.events != nil {
		s.events.Publish(entry)
	}
	event := string(resource) + "." + strings.ToLower(action)
	if err := audit.LogEvent(ctx, event, map[string]any{
		"actor_id":    pr.ID,
		"resource_id": resourceID,
		"details":     details,
	}); err != nil {
		obs.Error("audit log failed", err, nil)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
