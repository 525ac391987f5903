package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

// AccessService resolves effective permission sets and manages roles.
type AccessService struct {
	roles  ports.RoleRepository
	perms  ports.PermissionRepository
	users  ports.UserRepository
	events ports.EventDispatcher
	log    zerolog.Logger
}

func NewAccessService(
	roles ports.RoleRepository,
	perms ports.PermissionRepository,
	users ports.UserRepository,
	events ports.EventDispatcher,
	log zerolog.Logger,
) *AccessService {
	return &AccessService{roles: roles, perms: perms, users: users, events: events, log: log}
}

// ResolvePermissions computes the union of permission names reachable through
// the user's active roles within the user's org. Inactive roles contribute
// nothing even while assigned; system permissions (empty org) resolve for
// every org. The result depends only on stored role/permission state, so
// identical state always yields an identical set.
func (s *AccessService) ResolvePermissions(ctx context.Context, user *domain.User) (domain.PermissionSet, error) {
	set := domain.NewPermissionSet()
	if user == nil || len(user.RoleIDs) == 0 {
		return set, nil
	}

	roles, err := s.roles.FindRolesWithPermissions(ctx, user.RoleIDs, user.OrgID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, role := range roles {
		if !role.Active {
			continue
		}
		for _, id := range role.PermissionIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return set, nil
	}

	perms, err := s.perms.FindByIDs(ctx, ids, user.OrgID)
	if err != nil {
		return nil, err
	}
	for _, p := range perms {
		set.Add(p.Name)
	}
	return set, nil
}

// HasPermission reports whether the user's effective set contains name.
// A negative answer is a value, not an error.
func (s *AccessService) HasPermission(ctx context.Context, user *domain.User, name string) (bool, error) {
	set, err := s.ResolvePermissions(ctx, user)
	if err != nil {
		return false, err
	}
	return set.Has(name), nil
}

// HasAnyPermission reports whether the user holds at least one of names.
func (s *AccessService) HasAnyPermission(ctx context.Context, user *domain.User, names ...string) (bool, error) {
	set, err := s.ResolvePermissions(ctx, user)
	if err != nil {
		return false, err
	}
	return set.HasAny(names...), nil
}

// HasAllPermissions reports whether the user holds every one of names.
func (s *AccessService) HasAllPermissions(ctx context.Context, user *domain.User, names ...string) (bool, error) {
	set, err := s.ResolvePermissions(ctx, user)
	if err != nil {
		return false, err
	}
	return set.HasAll(names...), nil
}

// CreateRole creates an active role in the org. Name uniqueness within the
// org is repository-enforced.
func (s *AccessService) CreateRole(ctx context.Context, name, description, orgID string) (*domain.Role, error) {
	role := domain.NewRole(name, description, orgID)
	if err := s.roles.Save(ctx, role); err != nil {
		return nil, err
	}
	s.publish(role)

	s.log.Info().Str("role_id", role.ID).Str("org_id", orgID).Str("name", name).Msg("role created")
	return role, nil
}

// UpdateRole renames a role.
func (s *AccessService) UpdateRole(ctx context.Context, roleID, orgID, name, description string) (*domain.Role, error) {
	role, err := s.roles.FindByID(ctx, roleID, orgID)
	if err != nil {
		return nil, err
	}
	role.Rename(name, description)
	if err := s.roles.Save(ctx, role); err != nil {
		return nil, err
	}
	s.publish(role)
	return role, nil
}

// SetRoleActive flips the role's active flag. Deactivation immediately
// removes the role's permissions from every holder's next resolution.
func (s *AccessService) SetRoleActive(ctx context.Context, roleID, orgID string, active bool) error {
	role, err := s.roles.FindByID(ctx, roleID, orgID)
	if err != nil {
		return err
	}
	if active {
		role.Activate()
	} else {
		role.Deactivate()
	}
	if err := s.roles.Save(ctx, role); err != nil {
		return err
	}
	s.publish(role)
	return nil
}

// SetRolePermissions replaces the role's permission set after checking every
// referenced permission is visible to the org.
func (s *AccessService) SetRolePermissions(ctx context.Context, roleID, orgID string, permissionIDs []string) error {
	role, err := s.roles.FindByID(ctx, roleID, orgID)
	if err != nil {
		return err
	}

	if len(permissionIDs) > 0 {
		visible, err := s.perms.FindByIDs(ctx, permissionIDs, orgID)
		if err != nil {
			return err
		}
		if len(visible) != len(dedupe(permissionIDs)) {
			return domain.ErrPermissionNotFound
		}
	}

	role.SetPermissions(permissionIDs)
	if err := s.roles.Save(ctx, role); err != nil {
		return err
	}
	s.publish(role)
	return nil
}

// AssignRole adds the role to the user's assignment set. Both must live in
// the same org.
func (s *AccessService) AssignRole(ctx context.Context, userID, roleID, orgID string) error {
	if _, err := s.roles.FindByID(ctx, roleID, orgID); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID, orgID)
	if err != nil {
		return err
	}
	user.AssignRole(roleID)
	return s.users.Save(ctx, user)
}

func (s *AccessService) publish(role *domain.Role) {
	if s.events != nil {
		s.events.Enqueue(role.Events()...)
	}
	role.ClearEvents()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
