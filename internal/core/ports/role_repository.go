package ports

import (
	"context"

	"github.com/authcore/identity-system/internal/core/domain"
)

// RoleRepository defines role persistence, tenant-scoped throughout.
// Role name uniqueness within an org is enforced here; violations surface as
// domain.ErrDuplicateIdentity.
type RoleRepository interface {
	FindByID(ctx context.Context, id, orgID string) (*domain.Role, error)
	FindAll(ctx context.Context, orgID string) ([]*domain.Role, error)
	FindByName(ctx context.Context, name, orgID string) (*domain.Role, error)
	// FindRolesWithPermissions loads the given roles including their
	// permission ID sets. Unknown IDs are skipped, not an error.
	FindRolesWithPermissions(ctx context.Context, ids []string, orgID string) ([]*domain.Role, error)
	Exists(ctx context.Context, id, orgID string) (bool, error)
	Save(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id, orgID string) error
}
