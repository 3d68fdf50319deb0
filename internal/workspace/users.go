package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskgate.org/internal/auth"
	"taskgate.org/internal/ids"
	"taskgate.org/internal/policy"
)

// UserInput is the payload for creating a user. An empty OrganizationID
// means the principal's organization; an empty Role means viewer.
type UserInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
}

// UserPatch updates the fields that are set.
type UserPatch struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
}

// ListUsers returns the members of the principal's organization. Viewers only
// see themselves.
func (s *Service) ListUsers(ctx context.Context, pr policy.Principal) ([]User, error) {
	if err := s.policy.Authorize(pr, policy.ResourceUser, policy.ActionRead); err != nil {
		return nil, err
	}
	if pr.OrganizationID == "" {
		return []User{}, nil
	}
	f := UserFilter{OrganizationID: pr.OrganizationID}
	if pr.Role == policy.RoleViewer {
		f.UserID = pr.ID
	}
	users, err := s.store.ListUsers(ctx, f)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if policy.ViewerCanSeeInstance(pr.Role, u.ID, u.ID, pr.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

// GetUser returns one user if the principal may see it.
func (s *Service) GetUser(ctx context.Context, pr policy.Principal, id string) (User, error) {
	if err := s.policy.Authorize(pr, policy.ResourceUser, policy.ActionRead); err != nil {
		return User{}, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.policy.AuthorizeAccess(pr, policy.ResourceUser, u.Descriptor()); err != nil {
		return User{}, err
	}
	if err := s.policy.AuthorizeVisible(pr, policy.ResourceUser, u.ID, u.ID); err != nil {
		return User{}, err
	}
	return u, nil
}

// CreateUser adds a member to an organization the principal can access.
func (s *Service) CreateUser(ctx context.Context, pr policy.Principal, in UserInput) (User, error) {
	if err := s.policy.Authorize(pr, policy.ResourceUser, policy.ActionCreate); err != nil {
		return User{}, err
	}
	orgID := strings.TrimSpace(in.OrganizationID)
	if orgID == "" {
		orgID = pr.OrganizationID
	}
	if err := s.policy.AuthorizeCreate(pr, policy.ResourceUser, orgID); err != nil {
		return User{}, err
	}
	if _, err := s.store.GetOrganization(ctx, orgID); err != nil {
		return User{}, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return User{}, err
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	role := policy.RoleViewer
	if strings.TrimSpace(in.Role) != "" {
		if role, err = policy.ParseRole(in.Role); err != nil {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	now := s.timestamp()
	u := User{
		ID:             ids.New(),
		Email:          email,
		PasswordHash:   hash,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           role,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, pr, AuditCreate, policy.ResourceUser, u.ID, "Created user: "+u.Email)
	return u, nil
}

// UpdateUser applies patch to a user record. A user record is owned by the
// user it describes, so owners may update any member and admins only
// themselves. Changing a role additionally requires the right to create
// users, and nobody changes their own role.
func (s *Service) UpdateUser(ctx context.Context, pr policy.Principal, id string, patch UserPatch) (User, error) {
	if err := s.policy.Authorize(pr, policy.ResourceUser, policy.ActionUpdate); err != nil {
		return User{}, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.policy.AuthorizeModify(pr, policy.ResourceUser, policy.ActionUpdate, u.Descriptor()); err != nil {
		return User{}, err
	}

	if patch.Role != nil {
		role, err := policy.ParseRole(*patch.Role)
		if err != nil {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if role != u.Role {
			if err := s.policy.Authorize(pr, policy.ResourceUser, policy.ActionCreate); err != nil {
				return User{}, err
			}
			if u.ID == pr.ID {
				return User{}, fmt.Errorf("%w: cannot change your own role", ErrConflict)
			}
			u.Role = role
		}
	}
	if patch.Email != nil {
		if u.Email, err = normalizeEmail(*patch.Email); err != nil {
			return User{}, err
		}
	}
	if patch.Password != nil {
		if strings.TrimSpace(*patch.Password) == "" {
			return User{}, fmt.Errorf("%w: password must not be empty", ErrInvalidInput)
		}
		if u.PasswordHash, err = auth.HashPassword(*patch.Password); err != nil {
			return User{}, err
		}
	}
	if v := trimmed(patch.FirstName); v != nil {
		u.FirstName = *v
	}
	if v := trimmed(patch.LastName); v != nil {
		u.LastName = *v
	}
	u.UpdatedAt = s.timestamp()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, pr, AuditUpdate, policy.ResourceUser, u.ID, "Updated user: "+u.Email)
	return u, nil
}

// DeleteUser removes a member. Principals cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, pr policy.Principal, id string) error {
	if err := s.policy.Authorize(pr, policy.ResourceUser, policy.ActionDelete); err != nil {
		return err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.AuthorizeModify(pr, policy.ResourceUser, policy.ActionDelete, u.Descriptor()); err != nil {
		return err
	}
	if u.ID == pr.ID {
		return fmt.Errorf("%w: cannot delete your own account", ErrConflict)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%w: user still owns tasks", ErrConflict)
		}
		return err
	}
	s.recordAudit(ctx, pr, AuditDelete, policy.ResourceUser, id, "Deleted user: "+u.Email)
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}
