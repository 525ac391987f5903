package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/authcore/identity-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubRoleRepo struct {
	mu    sync.Mutex
	byKey map[string]*domain.Role // "id|org"
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{byKey: make(map[string]*domain.Role)}
}

func (r *stubRoleRepo) FindByID(_ context.Context, id, orgID string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.byKey[id+"|"+orgID]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	clone := *role
	return &clone, nil
}

func (r *stubRoleRepo) FindAll(_ context.Context, orgID string) ([]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var roles []*domain.Role
	for _, role := range r.byKey {
		if role.OrgID == orgID {
			clone := *role
			roles = append(roles, &clone)
		}
	}
	return roles, nil
}

func (r *stubRoleRepo) FindByName(_ context.Context, name, orgID string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.byKey {
		if role.Name == name && role.OrgID == orgID {
			clone := *role
			return &clone, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

// FindRolesWithPermissions skips unknown IDs, mirroring the Mongo $in query.
func (r *stubRoleRepo) FindRolesWithPermissions(_ context.Context, ids []string, orgID string) ([]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var roles []*domain.Role
	for _, id := range ids {
		if role, ok := r.byKey[id+"|"+orgID]; ok {
			clone := *role
			roles = append(roles, &clone)
		}
	}
	return roles, nil
}

func (r *stubRoleRepo) Exists(_ context.Context, id, orgID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byKey[id+"|"+orgID]
	return ok, nil
}

func (r *stubRoleRepo) Save(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byKey {
		if existing.ID == role.ID && existing.OrgID == role.OrgID {
			continue
		}
		if existing.OrgID == role.OrgID && existing.Name == role.Name {
			return domain.ErrDuplicateIdentity
		}
	}
	clone := *role
	r.byKey[role.ID+"|"+role.OrgID] = &clone
	return nil
}

func (r *stubRoleRepo) Delete(_ context.Context, id, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[id+"|"+orgID]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.byKey, id+"|"+orgID)
	return nil
}

type stubPermRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Permission
}

func newStubPermRepo() *stubPermRepo {
	return &stubPermRepo{byID: make(map[string]*domain.Permission)}
}

func (r *stubPermRepo) visible(p *domain.Permission, orgID string) bool {
	return p.OrgID == "" || p.OrgID == orgID
}

func (r *stubPermRepo) FindByID(_ context.Context, id, orgID string) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || !r.visible(p, orgID) {
		return nil, domain.ErrPermissionNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPermRepo) FindByIDs(_ context.Context, ids []string, orgID string) ([]*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var perms []*domain.Permission
	for _, id := range ids {
		if p, ok := r.byID[id]; ok && r.visible(p, orgID) {
			clone := *p
			perms = append(perms, &clone)
		}
	}
	return perms, nil
}

func (r *stubPermRepo) FindAll(_ context.Context, orgID string) ([]*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var perms []*domain.Permission
	for _, p := range r.byID {
		if r.visible(p, orgID) {
			clone := *p
			perms = append(perms, &clone)
		}
	}
	return perms, nil
}

func (r *stubPermRepo) FindByName(_ context.Context, name string) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrPermissionNotFound
}

func (r *stubPermRepo) Save(_ context.Context, p *domain.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubPermRepo) Delete(_ context.Context, id, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

type accessFixture struct {
	roles      *stubRoleRepo
	perms      *stubPermRepo
	users      *stubUserRepo
	dispatcher *stubDispatcher
	svc        *AccessService
}

func newAccessFixture() *accessFixture {
	f := &accessFixture{
		roles:      newStubRoleRepo(),
		perms:      newStubPermRepo(),
		users:      newStubUserRepo(),
		dispatcher: &stubDispatcher{},
	}
	f.svc = NewAccessService(f.roles, f.perms, f.users, f.dispatcher, zerolog.Nop())
	return f
}

func (f *accessFixture) seedPermission(t *testing.T, name, orgID string) *domain.Permission {
	t.Helper()
	p := domain.NewPermission(name, "test", "test", orgID)
	if err := f.perms.Save(context.Background(), p); err != nil {
		t.Fatalf("seed permission: %v", err)
	}
	return p
}

func (f *accessFixture) seedRole(t *testing.T, name, orgID string, permIDs ...string) *domain.Role {
	t.Helper()
	role := domain.NewRole(name, "", orgID)
	role.SetPermissions(permIDs)
	role.ClearEvents()
	if err := f.roles.Save(context.Background(), role); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return role
}

func (f *accessFixture) seedUser(t *testing.T, orgID string, roleIDs ...string) *domain.User {
	t.Helper()
	email, err := domain.NewEmail("user@acme.io")
	if err != nil {
		t.Fatalf("email: %v", err)
	}
	user := domain.NewUser(email, "user", "U", "Ser", orgID)
	user.ClearEvents()
	for _, id := range roleIDs {
		user.AssignRole(id)
	}
	if err := f.users.Save(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestResolvePermissions_UnionAcrossActiveRoles(t *testing.T) {
	f := newAccessFixture()
	ctx := context.Background()

	pRead := f.seedPermission(t, "docs.read", "org_1")
	pWrite := f.seedPermission(t, "docs.write", "org_1")
	pAdmin := f.seedPermission(t, "admin.all", "org_1")

	reader := f.seedRole(t, "reader", "org_1", pRead.ID)
	writer := f.seedRole(t, "writer", "org_1", pRead.ID, pWrite.ID)
	f.seedRole(t, "admin", "org_1", pAdmin.ID) // not assigned

	user := f.seedUser(t, "org_1", reader.ID, writer.ID)

	set, err := f.svc.ResolvePermissions(ctx, user)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.HasAll("docs.read", "docs.write") {
		t.Fatalf("expected union of both roles, got %v", set.Names())
	}
	if set.Has("admin.all") {
		t.Fatalf("unassigned role must contribute nothing")
	}
}

func TestResolvePermissions_InactiveRoleContributesNothing(t *testing.T) {
	f := newAccessFixture()
	ctx := context.Background()

	pRead := f.seedPermission(t, "docs.read", "org_1")
	pWrite := f.seedPermission(t, "docs.write", "org_1")

	reader := f.seedRole(t, "reader", "org_1", pRead.ID)
	writer := f.seedRole(t, "writer", "org_1", pWrite.ID)
	user := f.seedUser(t, "org_1", reader.ID, writer.ID)

	if err := f.svc.SetRoleActive(ctx, writer.ID, "org_1", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	set, err := f.svc.ResolvePermissions(ctx, user)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if set.Has("docs.write") {
		t.Fatalf("inactive role must contribute nothing while still assigned")
	}
	if !set.Has("docs.read") {
		t.Fatalf("active role must keep contributing")
	}

	// Reactivation restores the grants on the next resolution.
	if err := f.svc.SetRoleActive(ctx, writer.ID, "org_1", true); err != nil {
		t.Fatalf("activate: %v", err)
	}
	set, err = f.svc.ResolvePermissions(ctx, user)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Has("docs.write") {
		t.Fatalf("reactivated role must contribute again")
	}
}

func TestResolvePermissions_SystemPermissionVisibleToEveryOrg(t *testing.T) {
	f := newAccessFixture()
	ctx := context.Background()

	system := f.seedPermission(t, "identity.users.manage", "") // system-wide
	role := f.seedRole(t, "manager", "org_1", system.ID)
	user := f.seedUser(t, "org_1", role.ID)

	set, err := f.svc.ResolvePermissions(ctx, user)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Has("identity.users.manage") {
		t.Fatalf("system permission must resolve in any org")
	}
}

func TestResolvePermissions_NoRolesYieldsEmptySet(t *testing.T) {
	f := newAccessFixture()

	user := f.seedUser(t, "org_1")
	set, err := f.svc.ResolvePermissions(context.Background(), user)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %v", set.Names())
	}

	ok, err := f.svc.HasPermission(context.Background(), user, "anything")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if ok {
		t.Fatalf("empty set must deny everything")
	}
}

func TestHasAnyAndHasAll(t *testing.T) {
	f := newAccessFixture()
	ctx := context.Background()

	pRead := f.seedPermission(t, "docs.read", "org_1")
	role := f.seedRole(t, "reader", "org_1", pRead.ID)
	user := f.seedUser(t, "org_1", role.ID)

	any, err := f.svc.HasAnyPermission(ctx, user, "docs.write", "docs.read")
	if err != nil || !any {
		t.Fatalf("expected HasAny true, got %v/%v", any, err)
	}
	all, err := f.svc.HasAllPermissions(ctx, user, "docs.write", "docs.read")
	if err != nil || all {
		t.Fatalf("expected HasAll false, got %v/%v", all, err)
	}
}

func TestCreateRole_DispatchesRoleCreated(t *testing.T) {
	f := newAccessFixture()

	role, err := f.svc.CreateRole(context.Background(), "auditor", "read-only", "org_1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !role.Active {
		t.Fatalf("new role must be active")
	}

	names := f.dispatcher.names()
	if len(names) != 1 || names[0] != domain.EventRoleCreated {
		t.Fatalf("expected role.created dispatched, got %v", names)
	}

	// Duplicate name within the org is rejected.
	if _, err := f.svc.CreateRole(context.Background(), "auditor", "", "org_1"); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
	// Same name in another org is fine.
	if _, err := f.svc.CreateRole(context.Background(), "auditor", "", "org_2"); err != nil {
		t.Fatalf("same name in another org must be allowed: %v", err)
	}
}

func TestSetRolePermissions_RejectsInvisiblePermission(t *testing.T) {
	f := newAccessFixture()
	ctx := context.Background()

	ours := f.seedPermission(t, "docs.read", "org_1")
	theirs := f.seedPermission(t, "secrets.read", "org_2")
	role := f.seedRole(t, "reader", "org_1")

	err := f.svc.SetRolePermissions(ctx, role.ID, "org_1", []string{ours.ID, theirs.ID})
	if !errors.Is(err, domain.ErrPermissionNotFound) {
		t.Fatalf("another org's permission must be invisible, got %v", err)
	}

	if err := f.svc.SetRolePermissions(ctx, role.ID, "org_1", []string{ours.ID}); err != nil {
		t.Fatalf("set: %v", err)
	}

	names := f.dispatcher.names()
	if len(names) != 1 || names[0] != domain.EventPermissionChanged {
		t.Fatalf("expected role.permission_changed dispatched, got %v", names)
	}
}

func TestAssignRole(t *testing.T) {
	f := newAccessFixture()
	ctx := context.Background()

	role := f.seedRole(t, "reader", "org_1")
	user := f.seedUser(t, "org_1")

	if err := f.svc.AssignRole(ctx, user.ID, role.ID, "org_1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	persisted, _ := f.users.FindByID(ctx, user.ID, "org_1")
	if !persisted.HasRole(role.ID) {
		t.Fatalf("role assignment must be persisted")
	}

	if err := f.svc.AssignRole(ctx, user.ID, "ghost", "org_1"); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}
