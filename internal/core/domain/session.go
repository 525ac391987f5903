package domain

import "time"

// Session is a server-side login session identified by an opaque unique
// token. Sessions are append-only: once created they are never mutated in
// place, only revoked or deleted. A user may hold any number of concurrent
// active sessions; capping them is a policy decision for the application
// layer, not this entity.
type Session struct {
	Entity    `bson:",inline"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Token     string    `json:"token" bson:"token"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	Revoked   bool      `json:"revoked" bson:"revoked"`
	IPAddress string    `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
}

// NewSession creates an active session expiring at now + ttl.
func NewSession(userID, orgID, token string, ttl time.Duration, ip, userAgent string) *Session {
	s := &Session{
		Entity:    NewEntity(orgID),
		UserID:    userID,
		Token:     token,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	s.ExpiresAt = s.CreatedAt.Add(ttl)
	return s
}

// IsActive reports whether the session is usable at now: not revoked and not
// past its deadline. Once false for some now, it stays false for every later
// instant.
func (s *Session) IsActive(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// Expire records the detection of natural expiry and raises SessionExpired
// with the detection time, not the deadline. Applying it more than once is
// harmless.
func (s *Session) Expire(detectedAt time.Time) {
	s.Touch()
	s.Raise(NewSessionExpired(s, detectedAt))
}

// Revoke invalidates the session explicitly (logout, password change).
// Distinct from natural expiry: no SessionExpired event is raised.
func (s *Session) Revoke() {
	s.Revoked = true
	s.Touch()
}
