package pg

import (
	"context"
	"database/sql"

	"taskgate.org/internal/workspace"
)

const taskColumns = `id, title, description, status, priority, category, assigned_to_id, created_by_id, organization_id, due_date, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (workspace.Task, error) {
	var (
		t                workspace.Task
		status, priority string
		assignee         sql.NullString
		due              sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &t.Category,
		&assignee, &t.CreatedByID, &t.OrganizationID, &due, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return workspace.Task{}, err
	}
	t.Status = workspace.TaskStatus(status)
	t.Priority = workspace.TaskPriority(priority)
	t.AssignedToID = assignee.String
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, t workspace.Task) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `
		insert into tasks (`+taskColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.Category,
		nullIfEmpty(t.AssignedToID), t.CreatedByID, t.OrganizationID, nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt)
	return mapWriteError(err)
}

func (s *Store) GetTask(ctx context.Context, id string) (workspace.Task, error) {
	if s.db == nil {
		return workspace.Task{}, errNoDB
	}
	t, err := scanTask(s.db.QueryRowContext(ctx, `select `+taskColumns+` from tasks where id = $1`, id))
	if err != nil {
		return workspace.Task{}, notFound(err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, f workspace.TaskFilter) ([]workspace.Task, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var w where
	w.add(`organization_id = ?`, f.OrganizationID)
	if f.VisibleTo != "" {
		w.add(`(assigned_to_id = ? or created_by_id = ?)`, f.VisibleTo)
	}
	if f.Status != "" {
		w.add(`status = ?`, string(f.Status))
	}
	if f.Category != "" {
		w.add(`lower(category) = lower(?)`, f.Category)
	}
	rows, err := s.db.QueryContext(ctx, `select `+taskColumns+` from tasks`+w.String()+` order by created_at desc, id desc`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []workspace.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, t workspace.Task) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `
		update tasks
		set title = $2, description = $3, status = $4, priority = $5, category = $6,
			assigned_to_id = $7, due_date = $8, updated_at = $9
		where id = $1
	`, t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.Category,
		nullIfEmpty(t.AssignedToID), nullTime(t.DueDate), t.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return expectOne(res)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from tasks where id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
