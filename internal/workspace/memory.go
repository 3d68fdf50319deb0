package workspace

import (
	"context"
	"sort"
	"strings"
	"sync"

	"taskgate.org/internal/policy"
)

// Memory implements Store with in-process concurrency safety. It backs tests
// and the API when no database is configured.
type Memory struct {
	mu    sync.RWMutex
	orgs  map[string]Organization
	users map[string]User
	email map[string]string // lowercased email -> user id
	tasks map[string]Task
	audit []AuditEntry
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		orgs:  make(map[string]Organization),
		users: make(map[string]User),
		email: make(map[string]string),
		tasks: make(map[string]Task),
	}
}

func (m *Memory) CreateOrganization(_ context.Context, org Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[org.ID]; ok {
		return ErrConflict
	}
	if org.ParentID != "" {
		if _, ok := m.orgs[org.ParentID]; !ok {
			return ErrNotFound
		}
	}
	m.orgs[org.ID] = org
	return nil
}

func (m *Memory) GetOrganization(_ context.Context, id string) (Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	org, ok := m.orgs[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return org, nil
}

func (m *Memory) ListOrganizations(_ context.Context, scope policy.ListScope) ([]Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Organization, 0)
	for _, org := range m.orgs {
		if scope.Includes(org.ID, org.ParentID) {
			out = append(out, org)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateOrganization(_ context.Context, org Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[org.ID]; !ok {
		return ErrNotFound
	}
	m.orgs[org.ID] = org
	return nil
}

func (m *Memory) DeleteOrganization(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[id]; !ok {
		return ErrNotFound
	}
	for _, u := range m.users {
		if u.OrganizationID == id {
			return ErrConflict
		}
	}
	for _, o := range m.orgs {
		if o.ParentID == id {
			return ErrConflict
		}
	}
	for tid, t := range m.tasks {
		if t.OrganizationID == id {
			delete(m.tasks, tid)
		}
	}
	delete(m.orgs, id)
	return nil
}

func (m *Memory) CountMembers(_ context.Context, orgID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.users {
		if u.OrganizationID == orgID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountChildren(_ context.Context, orgID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, o := range m.orgs {
		if o.ParentID == orgID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return ErrConflict
	}
	key := strings.ToLower(u.Email)
	if _, ok := m.email[key]; ok {
		return ErrConflict
	}
	if _, ok := m.orgs[u.OrganizationID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = u
	m.email[key] = u.ID
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) ListUsers(_ context.Context, f UserFilter) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0)
	for _, u := range m.users {
		if u.OrganizationID != f.OrganizationID {
			continue
		}
		if f.UserID != "" && u.ID != f.UserID {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	oldKey, newKey := strings.ToLower(prev.Email), strings.ToLower(u.Email)
	if oldKey != newKey {
		if _, taken := m.email[newKey]; taken {
			return ErrConflict
		}
		delete(m.email, oldKey)
		m.email[newKey] = u.ID
	}
	m.users[u.ID] = u
	return nil
}

// DeleteUser refuses to remove a user who created tasks and clears the
// assignment of tasks assigned to them.
func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, t := range m.tasks {
		if t.CreatedByID == id {
			return ErrConflict
		}
	}
	for tid, t := range m.tasks {
		if t.AssignedToID == id {
			t.AssignedToID = ""
			m.tasks[tid] = t
		}
	}
	delete(m.email, strings.ToLower(u.Email))
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateTask(_ context.Context, t Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; ok {
		return ErrConflict
	}
	if _, ok := m.orgs[t.OrganizationID]; !ok {
		return ErrNotFound
	}
	m.tasks[t.ID] = copyTask(t)
	return nil
}

func (m *Memory) GetTask(_ context.Context, id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return copyTask(t), nil
}

func (m *Memory) ListTasks(_ context.Context, f TaskFilter) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Task, 0)
	for _, t := range m.tasks {
		if t.OrganizationID != f.OrganizationID {
			continue
		}
		if f.VisibleTo != "" && t.AssignedToID != f.VisibleTo && t.CreatedByID != f.VisibleTo {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
			continue
		}
		out = append(out, copyTask(t))
	}
	// ids are time ordered: newest first
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) UpdateTask(_ context.Context, t Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	m.tasks[t.ID] = copyTask(t)
	return nil
}

func (m *Memory) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *Memory) AppendAudit(_ context.Context, e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, e)
	return nil
}

func (m *Memory) ListAudit(_ context.Context, f AuditFilter) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit := ClampAuditLimit(f.Limit)
	out := make([]AuditEntry, 0)
	for i := len(m.audit) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.audit[i]
		if e.OrganizationID != f.OrganizationID {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.Resource != "" && e.Resource != f.Resource {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func copyTask(t Task) Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
