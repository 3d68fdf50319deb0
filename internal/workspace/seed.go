package workspace

import (
	"context"
	"errors"
	"time"

	"taskgate.org/internal/auth"
	"taskgate.org/internal/ids"
	"taskgate.org/internal/obs"
	"taskgate.org/internal/policy"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// SeedResult lists what Seed created.
type SeedResult struct {
	ParentOrganization Organization `json:"parent_organization"`
	ChildOrganization  Organization `json:"child_organization"`
	Users              []User       `json:"users"`
}

// Seed creates the demo tenant: a parent organization with its owner and a
// child organization with an admin and a viewer. It is a no-op returning
// ErrConflict when the owner account already exists.
func Seed(ctx context.Context, store Store, now func() time.Time) (SeedResult, error) {
	if _, err := store.GetUserByEmail(ctx, "owner@turbovets.com"); err == nil {
		return SeedResult{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return SeedResult{}, err
	}
	if now == nil {
		now = time.Now
	}
	ts := now().UTC()

	parent := Organization{ID: ids.New(), Name: "TurboVets Corp", CreatedAt: ts, UpdatedAt: ts}
	if err := store.CreateOrganization(ctx, parent); err != nil {
		return SeedResult{}, err
	}
	child := Organization{ID: ids.New(), Name: "Engineering Team", ParentID: parent.ID, CreatedAt: ts, UpdatedAt: ts}
	if err := store.CreateOrganization(ctx, child); err != nil {
		return SeedResult{}, err
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return SeedResult{}, err
	}
	users := []User{
		{Email: "owner@turbovets.com", FirstName: "John", LastName: "Owner", Role: policy.RoleOwner, OrganizationID: parent.ID},
		{Email: "admin@turbovets.com", FirstName: "Jane", LastName: "Admin", Role: policy.RoleAdmin, OrganizationID: child.ID},
		{Email: "viewer@turbovets.com", FirstName: "Bob", LastName: "Viewer", Role: policy.RoleViewer, OrganizationID: child.ID},
	}
	for i := range users {
		users[i].ID = ids.New()
		users[i].PasswordHash = hash
		users[i].CreatedAt = ts
		users[i].UpdatedAt = ts
		if err := store.CreateUser(ctx, users[i]); err != nil {
			return SeedResult{}, err
		}
	}
	obs.Info("demo data seeded", map[string]any{
		"parent_organization_id": parent.ID,
		"child_organization_id":  child.ID,
		"users":                  len(users),
	})
	return SeedResult{ParentOrganization: parent, ChildOrganization: child, Users: users}, nil
}
