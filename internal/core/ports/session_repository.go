package ports

import (
	"context"
	"time"

	"github.com/authcore/identity-system/internal/core/domain"
)

// SessionRepository defines session persistence, keyed by the opaque token
// within an org.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	FindByToken(ctx context.Context, token, orgID string) (*domain.Session, error)
	// FindActiveSessions returns the user's sessions still active at now.
	FindActiveSessions(ctx context.Context, userID, orgID string, now time.Time) ([]*domain.Session, error)
	Delete(ctx context.Context, token, orgID string) error
	// DeleteAllForUser removes every session of the user and returns how
	// many were removed.
	DeleteAllForUser(ctx context.Context, userID, orgID string) (int64, error)
	// DeleteExpired sweeps expired sessions across all orgs. Idempotent and
	// safe to run concurrently from multiple workers; zero affected rows is
	// not an error.
	DeleteExpired(ctx context.Context) (int64, error)
}
