package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

const sessionTokenBytes = 32

// SessionService manages session creation, validation and teardown.
type SessionService struct {
	sessions ports.SessionRepository
	events   ports.EventDispatcher
	log      zerolog.Logger
}

func NewSessionService(sessions ports.SessionRepository, events ports.EventDispatcher, log zerolog.Logger) *SessionService {
	return &SessionService{sessions: sessions, events: events, log: log}
}

// Create issues an active session with an opaque unique token.
func (s *SessionService) Create(ctx context.Context, userID, orgID string, ttl time.Duration, ip, userAgent string) (*domain.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	session := domain.NewSession(userID, orgID, token, ttl, ip, userAgent)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("session_id", session.ID).
		Str("user_id", userID).
		Str("org_id", orgID).
		Time("expires_at", session.ExpiresAt).
		Msg("session created")

	return session, nil
}

// IsActive reports whether token maps to a session active at now. An unknown
// token is inactive, not an error.
func (s *SessionService) IsActive(ctx context.Context, token, orgID string, now time.Time) (bool, error) {
	session, err := s.sessions.FindByToken(ctx, token, orgID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return session.IsActive(now), nil
}

// FindActive returns the user's sessions still active at now.
func (s *SessionService) FindActive(ctx context.Context, userID, orgID string, now time.Time) ([]*domain.Session, error) {
	return s.sessions.FindActiveSessions(ctx, userID, orgID, now)
}

// Expire records detection of natural expiry: removes the session and
// dispatches SessionExpired stamped with the detection time (not the
// deadline). Applying it to an already-removed session is harmless.
func (s *SessionService) Expire(ctx context.Context, session *domain.Session, now time.Time) error {
	session.Expire(now)

	if err := s.sessions.Delete(ctx, session.Token, session.OrgID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}

	// Events go to the dispatcher unclaimed; Enqueue performs the claim.
	if s.events != nil {
		s.events.Enqueue(session.Events()...)
	}
	session.ClearEvents()
	return nil
}

// Revoke invalidates one session explicitly. Raises no SessionExpired event.
func (s *SessionService) Revoke(ctx context.Context, token, orgID string) error {
	if err := s.sessions.Delete(ctx, token, orgID); err != nil {
		return err
	}
	s.log.Debug().Str("org_id", orgID).Msg("session revoked")
	return nil
}

// RevokeAllForUser invalidates every session of the user (e.g. password
// change). Raises no SessionExpired events.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID, orgID string) error {
	n, err := s.sessions.DeleteAllForUser(ctx, userID, orgID)
	if err != nil {
		return err
	}
	s.log.Info().
		Str("user_id", userID).
		Str("org_id", orgID).
		Int64("revoked", n).
		Msg("all sessions revoked")
	return nil
}

// DeleteExpiredSessions sweeps expired sessions. Idempotent; zero affected
// rows is a normal outcome, and concurrent sweeps do not conflict.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("expired sessions swept")
	}
	return n, nil
}

// newSessionToken returns an opaque 64-hex-char token from crypto/rand.
func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
