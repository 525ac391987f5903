package ports

import (
	"context"
	"time"

	"github.com/authcore/identity-system/internal/core/domain"
)

// SessionService manages the session lifecycle:
// CREATED → ACTIVE → {EXPIRED, REVOKED}, both terminal.
type SessionService interface {
	// Create issues an active session with an opaque unique token expiring
	// at now + ttl.
	Create(ctx context.Context, userID, orgID string, ttl time.Duration, ip, userAgent string) (*domain.Session, error)
	// IsActive reports whether the token maps to a session active at now.
	// An unknown token is simply inactive, not an error.
	IsActive(ctx context.Context, token, orgID string, now time.Time) (bool, error)
	FindActive(ctx context.Context, userID, orgID string, now time.Time) ([]*domain.Session, error)
	// Expire records detection of natural expiry, removes the session and
	// dispatches SessionExpired stamped with the detection time.
	Expire(ctx context.Context, session *domain.Session, now time.Time) error
	// Revoke and RevokeAllForUser invalidate explicitly (logout, password
	// change). No SessionExpired event is raised.
	Revoke(ctx context.Context, token, orgID string) error
	RevokeAllForUser(ctx context.Context, userID, orgID string) error
	// DeleteExpiredSessions is an idempotent batch sweep, safe to run
	// concurrently from multiple workers.
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
