package pg

import (
	"context"
	"database/sql"

	"taskgate.org/internal/policy"
	"taskgate.org/internal/workspace"
)

const orgColumns = `id, name, parent_id, created_at, updated_at`

func scanOrganization(row interface{ Scan(...any) error }) (workspace.Organization, error) {
	var (
		org    workspace.Organization
		parent sql.NullString
	)
	if err := row.Scan(&org.ID, &org.Name, &parent, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return workspace.Organization{}, err
	}
	org.ParentID = parent.String
	return org, nil
}

func (s *Store) CreateOrganization(ctx context.Context, org workspace.Organization) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `
		insert into organizations (id, name, parent_id, created_at, updated_at)
		values ($1, $2, $3, $4, $5)
	`, org.ID, org.Name, nullIfEmpty(org.ParentID), org.CreatedAt, org.UpdatedAt)
	return mapWriteError(err)
}

func (s *Store) GetOrganization(ctx context.Context, id string) (workspace.Organization, error) {
	if s.db == nil {
		return workspace.Organization{}, errNoDB
	}
	org, err := scanOrganization(s.db.QueryRowContext(ctx,
		`select `+orgColumns+` from organizations where id = $1`, id))
	if err != nil {
		return workspace.Organization{}, notFound(err)
	}
	return org, nil
}

// ListOrganizations translates the list scope into a predicate: exact scopes
// match the id, child scopes also match direct children.
func (s *Store) ListOrganizations(ctx context.Context, scope policy.ListScope) ([]workspace.Organization, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var cond string
	switch scope.Mode {
	case policy.ScopeExact:
		cond = `id = $1`
	case policy.ScopeWithChildren:
		cond = `id = $1 or parent_id = $1`
	default:
		return []workspace.Organization{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+orgColumns+` from organizations where `+cond+` order by name, id`, scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := []workspace.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (s *Store) UpdateOrganization(ctx context.Context, org workspace.Organization) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `
		update organizations set name = $2, updated_at = $3 where id = $1
	`, org.ID, org.Name, org.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return expectOne(res)
}

func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}
	return expectOne(res)
}

func (s *Store) CountMembers(ctx context.Context, orgID string) (int, error) {
	return s.count(ctx, `select count(*) from users where organization_id = $1`, orgID)
}

func (s *Store) CountChildren(ctx context.Context, orgID string) (int, error) {
	return s.count(ctx, `select count(*) from organizations where parent_id = $1`, orgID)
}

func (s *Store) count(ctx context.Context, query, arg string) (int, error) {
	if s.db == nil {
		return 0, errNoDB
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
