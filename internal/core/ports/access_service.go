package ports

import (
	"context"

	"github.com/authcore/identity-system/internal/core/domain"
)

// AccessService resolves effective permissions and manages roles.
//
// Resolution is read-only and deterministic: identical role/permission state
// always yields the identical set. A negative permission check is a value,
// never an error; deciding to reject is the caller's job. The service does
// not cache — callers that cache resolved sets must invalidate on
// RoleCreated, RoleUpdated and PermissionChanged events.
type AccessService interface {
	// ResolvePermissions computes the union of permission names reachable
	// through the user's *active* roles within the user's org. System
	// permissions resolve for every org, custom ones only for their owner.
	ResolvePermissions(ctx context.Context, user *domain.User) (domain.PermissionSet, error)
	HasPermission(ctx context.Context, user *domain.User, name string) (bool, error)
	HasAnyPermission(ctx context.Context, user *domain.User, names ...string) (bool, error)
	HasAllPermissions(ctx context.Context, user *domain.User, names ...string) (bool, error)

	CreateRole(ctx context.Context, name, description, orgID string) (*domain.Role, error)
	UpdateRole(ctx context.Context, roleID, orgID, name, description string) (*domain.Role, error)
	SetRoleActive(ctx context.Context, roleID, orgID string, active bool) error
	SetRolePermissions(ctx context.Context, roleID, orgID string, permissionIDs []string) error
	AssignRole(ctx context.Context, userID, roleID, orgID string) error
}
