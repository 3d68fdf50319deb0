package pg

import (
	"context"
	"strconv"

	"taskgate.org/internal/workspace"
)

func (s *Store) AppendAudit(ctx context.Context, e workspace.AuditEntry) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `
		insert into audit_logs (id, user_id, organization_id, action, resource, resource_id, details, ip_address, user_agent, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.UserID, e.OrganizationID, e.Action, e.Resource, e.ResourceID, e.Details, e.IPAddress, e.UserAgent, e.CreatedAt)
	return err
}

func (s *Store) ListAudit(ctx context.Context, f workspace.AuditFilter) ([]workspace.AuditEntry, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var w where
	w.add(`organization_id = ?`, f.OrganizationID)
	if f.UserID != "" {
		w.add(`user_id = ?`, f.UserID)
	}
	if f.Resource != "" {
		w.add(`resource = ?`, f.Resource)
	}
	args := append(w.args, workspace.ClampAuditLimit(f.Limit))
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, organization_id, action, resource, resource_id, details, ip_address, user_agent, created_at
		from audit_logs`+w.String()+`
		order by created_at desc, id desc
		limit $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []workspace.AuditEntry{}
	for rows.Next() {
		var e workspace.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.OrganizationID, &e.Action, &e.Resource, &e.ResourceID,
			&e.Details, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
