package ports

import (
	"context"

	"github.com/authcore/identity-system/internal/core/domain"
)

// UserRepository defines user persistence. Every query is tenant-scoped by
// orgID except FindByEmail, which is global: it backs the uniqueness check
// performed before org resolution. Uniqueness of (email, org) and
// (username, org) is enforced here, not in the domain layer; violations
// surface as domain.ErrDuplicateIdentity.
type UserRepository interface {
	FindByID(ctx context.Context, id, orgID string) (*domain.User, error)
	FindAll(ctx context.Context, orgID string) ([]*domain.User, error)
	FindByEmail(ctx context.Context, email domain.Email) (*domain.User, error)
	FindByEmailInOrg(ctx context.Context, email domain.Email, orgID string) (*domain.User, error)
	FindByUsername(ctx context.Context, username, orgID string) (*domain.User, error)
	Exists(ctx context.Context, id, orgID string) (bool, error)
	Save(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id, orgID string) error
}
