package pg

import (
	"context"

	"taskgate.org/internal/policy"
	"taskgate.org/internal/workspace"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, organization_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (workspace.User, error) {
	var (
		u    workspace.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role, &u.OrganizationID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return workspace.User{}, err
	}
	u.Role = policy.Role(role)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u workspace.User) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, email, password_hash, first_name, last_name, role, organization_id, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.OrganizationID, u.CreatedAt, u.UpdatedAt)
	return mapWriteError(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (workspace.User, error) {
	if s.db == nil {
		return workspace.User{}, errNoDB
	}
	u, err := scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id))
	if err != nil {
		return workspace.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (workspace.User, error) {
	if s.db == nil {
		return workspace.User{}, errNoDB
	}
	u, err := scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where lower(email) = lower($1)`, email))
	if err != nil {
		return workspace.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, f workspace.UserFilter) ([]workspace.User, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var w where
	w.add(`organization_id = ?`, f.OrganizationID)
	if f.UserID != "" {
		w.add(`id = ?`, f.UserID)
	}
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from users`+w.String()+` order by email`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []workspace.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u workspace.User) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `
		update users
		set email = $2, password_hash = $3, first_name = $4, last_name = $5, role = $6, updated_at = $7
		where id = $1
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return expectOne(res)
}

// DeleteUser fails with ErrConflict while tasks created by the user remain;
// assignments are cleared by the schema.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}
	return expectOne(res)
}
