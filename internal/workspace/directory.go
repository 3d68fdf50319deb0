package workspace

import (
	"context"
	"errors"
	"fmt"

	"taskgate.org/internal/auth"
	"taskgate.org/internal/ids"
	"taskgate.org/internal/policy"
)

// Directory exposes the user store to the auth service.
func (s *Service) Directory() auth.Directory { return directory{svc: s} }

type directory struct {
	svc *Service
}

func (d directory) FindAccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	u, err := d.svc.store.GetUserByEmail(ctx, email)
	if err != nil {
		return auth.Account{}, err
	}
	return auth.Account{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		PasswordHash:   u.PasswordHash,
	}, nil
}

// CreateAccount stores a self-registered account. The organization must
// already exist.
func (d directory) CreateAccount(ctx context.Context, acc *auth.Account) error {
	if _, err := d.svc.store.GetOrganization(ctx, acc.OrganizationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: organization %s does not exist", auth.ErrInvalidInput, acc.OrganizationID)
		}
		return err
	}
	now := d.svc.timestamp()
	u := User{
		ID:             ids.New(),
		Email:          acc.Email,
		PasswordHash:   acc.PasswordHash,
		FirstName:      acc.FirstName,
		LastName:       acc.LastName,
		Role:           acc.Role,
		OrganizationID: acc.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := d.svc.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrConflict) {
			return auth.ErrAlreadyExists
		}
		return err
	}
	acc.ID = u.ID
	self := policy.Principal{ID: u.ID, Role: u.Role, OrganizationID: u.OrganizationID}
	d.svc.recordAudit(ctx, self, AuditCreate, policy.ResourceUser, u.ID, "Registered user: "+u.Email)
	return nil
}
