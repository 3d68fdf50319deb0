package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgate.org/internal/auth"
	"taskgate.org/internal/ids"
	"taskgate.org/internal/policy"
	"taskgate.org/internal/stream"
)

type fixture struct {
	svc    *Service
	store  *Memory
	seed   SeedResult
	owner  policy.Principal
	admin  policy.Principal
	viewer policy.Principal
}

func principalOf(u User) policy.Principal {
	return policy.Principal{ID: u.ID, Role: u.Role, OrganizationID: u.OrganizationID}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemory()
	seed, err := Seed(context.Background(), store, nil)
	require.NoError(t, err)
	svc, err := NewService(store)
	require.NoError(t, err)
	return &fixture{
		svc:    svc,
		store:  store,
		seed:   seed,
		owner:  principalOf(seed.Users[0]),
		admin:  principalOf(seed.Users[1]),
		viewer: principalOf(seed.Users[2]),
	}
}

// addMember inserts a user directly, bypassing the policy.
func (f *fixture) addMember(t *testing.T, email string, role policy.Role, orgID string) policy.Principal {
	t.Helper()
	u := User{ID: ids.New(), Email: email, Role: role, OrganizationID: orgID}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return principalOf(u)
}

func TestSeed(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "TurboVets Corp", f.seed.ParentOrganization.Name)
	assert.Equal(t, f.seed.ParentOrganization.ID, f.seed.ChildOrganization.ParentID)
	assert.Equal(t, f.seed.ParentOrganization.ID, f.owner.OrganizationID)
	assert.Equal(t, f.seed.ChildOrganization.ID, f.admin.OrganizationID)
	assert.Equal(t, f.seed.ChildOrganization.ID, f.viewer.OrganizationID)

	u, err := f.store.GetUserByEmail(context.Background(), "VIEWER@turbovets.com")
	require.NoError(t, err)
	require.NoError(t, auth.VerifyPassword(u.PasswordHash, DemoPassword))

	_, err = Seed(context.Background(), f.store, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	task, err := f.svc.CreateTask(ctx, f.admin, TaskInput{Title: " Fix login ", Category: "Work", AssignedToID: f.viewer.ID, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "Fix login", task.Title)
	assert.Equal(t, f.admin.ID, task.CreatedByID)
	assert.Equal(t, f.admin.OrganizationID, task.OrganizationID)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.True(t, ids.Valid(task.ID))

	_, err = f.svc.CreateTask(ctx, f.viewer, TaskInput{Title: "x", Category: "Work"})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	_, err = f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "", Category: "Work"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "x", Category: "Work", Priority: "critical"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "x", Category: "Work", AssignedToID: f.owner.ID})
	assert.ErrorIs(t, err, ErrInvalidInput, "assignee from another organization")
	_, err = f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "x", Category: "Work", AssignedToID: "missing"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateTask(ctx, policy.Principal{ID: "u", Role: policy.RoleOwner}, TaskInput{Title: "x", Category: "Work"})
	assert.ErrorIs(t, err, policy.ErrAccessDenied, "principal without organization")
}

func TestListTasksAppliesViewerFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assigned, err := f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "assigned", Category: "Work", AssignedToID: f.viewer.ID})
	require.NoError(t, err)
	_, err = f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "other", Category: "Personal", Status: "done"})
	require.NoError(t, err)

	got, err := f.svc.ListTasks(ctx, f.viewer, TaskQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, assigned.ID, got[0].ID)

	got, err = f.svc.ListTasks(ctx, f.admin, TaskQuery{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "other", got[0].Title, "newest first")

	got, err = f.svc.ListTasks(ctx, f.admin, TaskQuery{Status: "done"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	got, err = f.svc.ListTasks(ctx, f.admin, TaskQuery{Category: "work"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	_, err = f.svc.ListTasks(ctx, f.admin, TaskQuery{Status: "later"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err = f.svc.ListTasks(ctx, f.owner, TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, got, "parent organization owner sees no child tasks")

	got, err = f.svc.ListTasks(ctx, policy.Principal{Role: policy.RoleViewer, OrganizationID: f.viewer.OrganizationID}, TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, got, "viewer without id sees nothing")
}

func TestGetTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assigned, err := f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "assigned", Category: "Work", AssignedToID: f.viewer.ID})
	require.NoError(t, err)
	hidden, err := f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "hidden", Category: "Work"})
	require.NoError(t, err)

	got, err := f.svc.GetTask(ctx, f.viewer, assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, assigned.ID, got.ID)

	_, err = f.svc.GetTask(ctx, f.viewer, hidden.ID)
	assert.ErrorIs(t, err, policy.ErrAccessDenied)
	_, err = f.svc.GetTask(ctx, f.owner, hidden.ID)
	assert.ErrorIs(t, err, policy.ErrAccessDenied, "child organization task from parent")
	_, err = f.svc.GetTask(ctx, f.admin, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTaskOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	childOwner := f.addMember(t, "lead@turbovets.com", policy.RoleOwner, f.admin.OrganizationID)
	otherAdmin := f.addMember(t, "admin2@turbovets.com", policy.RoleAdmin, f.admin.OrganizationID)

	task, err := f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "mine", Category: "Work"})
	require.NoError(t, err)

	title := "renamed"
	_, err = f.svc.UpdateTask(ctx, otherAdmin, task.ID, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, policy.ErrModificationDenied)
	_, err = f.svc.UpdateTask(ctx, f.viewer, task.ID, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	_, err = f.svc.UpdateTask(ctx, f.owner, task.ID, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, policy.ErrAccessDenied)

	updated, err := f.svc.UpdateTask(ctx, f.admin, task.ID, TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	assignee := f.viewer.ID
	updated, err = f.svc.UpdateTask(ctx, childOwner, task.ID, TaskPatch{AssignedToID: &assignee})
	require.NoError(t, err)
	assert.Equal(t, f.viewer.ID, updated.AssignedToID)
	assert.Equal(t, f.admin.ID, updated.CreatedByID, "creator is unchanged")

	empty := " "
	_, err = f.svc.UpdateTask(ctx, f.admin, task.ID, TaskPatch{Title: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateTaskStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "t", Category: "Work"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateTaskStatus(ctx, f.admin, task.ID, "in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, updated.Status)

	_, err = f.svc.UpdateTaskStatus(ctx, f.admin, task.ID, "blocked")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.UpdateTaskStatus(ctx, f.admin, task.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateTaskRejectsEmptyStatusAndPriority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "t", Category: "Work", Status: "done", Priority: "urgent"})
	require.NoError(t, err)

	empty := " "
	_, err = f.svc.UpdateTask(ctx, f.admin, task.ID, TaskPatch{Status: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.UpdateTask(ctx, f.admin, task.ID, TaskPatch{Priority: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := f.svc.GetTask(ctx, f.admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, PriorityUrgent, got.Priority)
}

func TestDeleteTaskRecordsAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "t", Category: "Work"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteTask(ctx, f.viewer, task.ID), policy.ErrPermissionDenied)
	require.NoError(t, f.svc.DeleteTask(ctx, f.admin, task.ID))
	_, err = f.svc.GetTask(ctx, f.admin, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := f.svc.ListAudit(ctx, f.admin, AuditQuery{Resource: "task"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, AuditDelete, entries[0].Action)
	assert.Equal(t, AuditCreate, entries[1].Action)
	assert.Equal(t, task.ID, entries[0].ResourceID)
	assert.Equal(t, "Deleted task: t", entries[0].Details)
}

func TestUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users, err := f.svc.ListUsers(ctx, f.viewer)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, f.viewer.ID, users[0].ID)

	users, err = f.svc.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.svc.GetUser(ctx, f.viewer, f.admin.ID)
	assert.ErrorIs(t, err, policy.ErrAccessDenied)
	_, err = f.svc.GetUser(ctx, f.owner, f.admin.ID)
	assert.ErrorIs(t, err, policy.ErrAccessDenied)
	self, err := f.svc.GetUser(ctx, f.viewer, f.viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, "viewer@turbovets.com", self.Email)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, f.admin, UserInput{Email: "x@turbovets.com", Password: "pw"})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	u, err := f.svc.CreateUser(ctx, f.owner, UserInput{Email: " New@TurboVets.com ", Password: "pw", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "new@turbovets.com", u.Email)
	assert.Equal(t, policy.RoleAdmin, u.Role)
	assert.Equal(t, f.owner.OrganizationID, u.OrganizationID)
	assert.NoError(t, auth.VerifyPassword(u.PasswordHash, "pw"))

	_, err = f.svc.CreateUser(ctx, f.owner, UserInput{Email: "new@turbovets.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.svc.CreateUser(ctx, f.owner, UserInput{Email: "c@turbovets.com", Password: "pw", OrganizationID: f.seed.ChildOrganization.ID})
	assert.ErrorIs(t, err, policy.ErrAccessDenied, "child organization is not accessible")
	_, err = f.svc.CreateUser(ctx, f.owner, UserInput{Email: "r@turbovets.com", Password: "pw", Role: "root"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateUser(ctx, f.owner, UserInput{Email: "nope", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.addMember(t, "member@turbovets.com", policy.RoleViewer, f.owner.OrganizationID)

	name := "Janet"
	u, err := f.svc.UpdateUser(ctx, f.admin, f.admin.ID, UserPatch{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Janet", u.FirstName)

	_, err = f.svc.UpdateUser(ctx, f.admin, f.viewer.ID, UserPatch{FirstName: &name})
	assert.ErrorIs(t, err, policy.ErrModificationDenied)

	role := "owner"
	_, err = f.svc.UpdateUser(ctx, f.admin, f.admin.ID, UserPatch{Role: &role})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied, "admins cannot change roles")

	_, err = f.svc.UpdateUser(ctx, f.viewer, f.viewer.ID, UserPatch{FirstName: &name})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	role = "admin"
	u, err = f.svc.UpdateUser(ctx, f.owner, member.ID, UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleAdmin, u.Role)

	taken := "owner@turbovets.com"
	_, err = f.svc.UpdateUser(ctx, f.owner, member.ID, UserPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOwnerCannotChangeOwnRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := "viewer"
	_, err := f.svc.UpdateUser(ctx, f.owner, f.owner.ID, UserPatch{Role: &role})
	assert.ErrorIs(t, err, ErrConflict)

	same := "owner"
	name := "Johnny"
	u, err := f.svc.UpdateUser(ctx, f.owner, f.owner.ID, UserPatch{Role: &same, FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleOwner, u.Role)
	assert.Equal(t, "Johnny", u.FirstName)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.addMember(t, "member@turbovets.com", policy.RoleViewer, f.owner.OrganizationID)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, f.admin, f.viewer.ID), policy.ErrPermissionDenied)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, f.owner, f.owner.ID), ErrConflict)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, f.owner, f.viewer.ID), policy.ErrAccessDenied)
	require.NoError(t, f.svc.DeleteUser(ctx, f.owner, member.ID))
	_, err := f.store.GetUser(ctx, member.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrganizations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent, child := f.seed.ParentOrganization, f.seed.ChildOrganization

	orgs, err := f.svc.ListOrganizations(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, orgs, 2, "owner lists own organization and its child")

	orgs, err = f.svc.ListOrganizations(ctx, f.viewer)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, child.ID, orgs[0].ID)

	_, err = f.svc.GetOrganization(ctx, f.owner, child.ID)
	assert.ErrorIs(t, err, policy.ErrAccessDenied, "listed child is not individually accessible")
	got, err := f.svc.GetOrganization(ctx, f.owner, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.Name, got.Name)

	_, err = f.svc.CreateOrganization(ctx, f.admin, OrganizationInput{Name: "Ops"})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	_, err = f.svc.CreateOrganization(ctx, f.owner, OrganizationInput{Name: "Ops", ParentID: child.ID})
	assert.ErrorIs(t, err, policy.ErrAccessDenied)
	ops, err := f.svc.CreateOrganization(ctx, f.owner, OrganizationInput{Name: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, ops.ParentID)

	name := "TurboVets Holdings"
	renamed, err := f.svc.UpdateOrganization(ctx, f.owner, parent.ID, OrganizationPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, renamed.Name)
	_, err = f.svc.UpdateOrganization(ctx, f.admin, child.ID, OrganizationPatch{Name: &name})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	assert.ErrorIs(t, f.svc.DeleteOrganization(ctx, f.owner, parent.ID), ErrConflict)
	assert.ErrorIs(t, f.svc.DeleteOrganization(ctx, f.owner, ops.ID), policy.ErrAccessDenied)
	assert.ErrorIs(t, f.svc.DeleteOrganization(ctx, f.admin, child.ID), policy.ErrPermissionDenied)
}

func TestListAuditIsScopedToOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateTask(ctx, f.owner, TaskInput{Title: "parent task", Category: "Work"})
	require.NoError(t, err)
	_, err = f.svc.CreateTask(ctx, f.admin, TaskInput{Title: "child task", Category: "Work"})
	require.NoError(t, err)

	entries, err := f.svc.ListAudit(ctx, f.owner, AuditQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Created task: parent task", entries[0].Details)
	assert.Equal(t, f.owner.ID, entries[0].UserID)

	entries, err = f.svc.ListAudit(ctx, f.admin, AuditQuery{UserID: f.owner.ID})
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = f.svc.ListAudit(ctx, f.viewer, AuditQuery{})
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	_, err = f.svc.ListAudit(ctx, f.owner, AuditQuery{Resource: "invoice"})
	assert.ErrorIs(t, err, policy.ErrInvalidRequest)
}

func TestDirectoryRegistersViewers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	iss, err := auth.NewIssuer("workspace-test-secret")
	require.NoError(t, err)
	authSvc, err := auth.NewService(f.svc.Directory(), iss)
	require.NoError(t, err)

	sess, err := authSvc.Login(ctx, "owner@turbovets.com", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, sess.Account.ID)

	reg, err := authSvc.Register(ctx, auth.RegisterRequest{Email: "new@turbovets.com", Password: "pw", OrganizationID: f.seed.ChildOrganization.ID})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleViewer, reg.Account.Role)
	assert.NotEmpty(t, reg.Account.ID)

	_, err = authSvc.Register(ctx, auth.RegisterRequest{Email: "new@turbovets.com", Password: "pw", OrganizationID: f.seed.ChildOrganization.ID})
	assert.ErrorIs(t, err, auth.ErrAlreadyExists)
	_, err = authSvc.Register(ctx, auth.RegisterRequest{Email: "x@turbovets.com", Password: "pw", OrganizationID: "missing"})
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}

func TestServiceReportsDecisions(t *testing.T) {
	store := NewMemory()
	seed, err := Seed(context.Background(), store, nil)
	require.NoError(t, err)
	var denied int
	p := policy.New(func(_ policy.Resource, _ policy.Action, d policy.Decision) {
		if !d.Allowed {
			denied++
		}
	})
	svc, err := NewService(store, WithPolicy(p))
	require.NoError(t, err)

	_, err = svc.CreateTask(context.Background(), principalOf(seed.Users[2]), TaskInput{Title: "t", Category: "Work"})
	require.Error(t, err)
	assert.Equal(t, 1, denied)
}

func TestSubscribeAudit(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := f.svc.SubscribeAudit(ctx, f.admin, "")
	assert.ErrorIs(t, err, ErrUnavailable)

	svc, err := NewService(f.store, WithEvents(stream.New[AuditEntry](8)))
	require.NoError(t, err)

	_, err = svc.SubscribeAudit(ctx, f.viewer, "")
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)
	_, err = svc.SubscribeAudit(ctx, f.admin, "invoice")
	assert.ErrorIs(t, err, policy.ErrInvalidRequest)

	adminFeed, err := svc.SubscribeAudit(ctx, f.admin, "task")
	require.NoError(t, err)
	ownerFeed, err := svc.SubscribeAudit(ctx, f.owner, "")
	require.NoError(t, err)

	task, err := svc.CreateTask(ctx, f.admin, TaskInput{Title: "Streamed", Category: "Work"})
	require.NoError(t, err)

	select {
	case e := <-adminFeed:
		assert.Equal(t, task.ID, e.ResourceID)
		assert.Equal(t, AuditCreate, e.Action)
	case <-time.After(time.Second):
		t.Fatal("admin feed received nothing")
	}
	select {
	case e := <-ownerFeed:
		t.Fatalf("owner received entry of another organization: %+v", e)
	default:
	}
}
