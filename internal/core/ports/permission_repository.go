package ports

import (
	"context"

	"github.com/authcore/identity-system/internal/core/domain"
)

// PermissionRepository defines permission persistence. Lookups by org return
// both the org's custom permissions and system-wide permissions (empty
// OrgID); FindByName is global because permission names are globally unique.
type PermissionRepository interface {
	FindByID(ctx context.Context, id, orgID string) (*domain.Permission, error)
	// FindByIDs returns the permissions among ids visible to orgID: the
	// org's own plus system-wide ones. Unknown IDs are skipped.
	FindByIDs(ctx context.Context, ids []string, orgID string) ([]*domain.Permission, error)
	FindAll(ctx context.Context, orgID string) ([]*domain.Permission, error)
	FindByName(ctx context.Context, name string) (*domain.Permission, error)
	Save(ctx context.Context, permission *domain.Permission) error
	Delete(ctx context.Context, id, orgID string) error
}
