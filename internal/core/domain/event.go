package domain

import "time"

// Event names for the closed set of domain events.
const (
	EventUserRegistered    = "user.registered"
	EventUserLoggedIn      = "user.logged_in"
	EventRoleCreated       = "role.created"
	EventRoleUpdated       = "role.updated"
	EventPermissionChanged = "role.permission_changed"
	EventSessionExpired    = "session.expired"
)

// Event is a domain event raised by an aggregate. Events carry a snapshot of
// the relevant entity fields at the moment of occurrence, so they stay valid
// after the source entity is mutated or deleted. The set of implementations
// is closed: UserRegistered, UserLoggedIn, RoleCreated, RoleUpdated,
// PermissionChanged and SessionExpired.
type Event interface {
	// Name identifies the event kind.
	Name() string
	// OccurredOn is the logical event time, not the dispatch time.
	OccurredOn() time.Time
	// AggregateID identifies the aggregate that raised the event.
	AggregateID() string
	// MarkForDispatch claims the event for the external event pipeline.
	// The flag is monotonic: the first call returns true, every later call
	// is a no-op returning false. Never an error.
	MarkForDispatch() bool
	// MarkedForDispatch reports whether the event has been claimed.
	MarkedForDispatch() bool

	isDomainEvent()
}

// eventBase implements the Event bookkeeping shared by all concrete events.
type eventBase struct {
	name        string
	aggregateID string
	occurredOn  time.Time
	dispatched  bool
}

func newEventBase(name, aggregateID string, occurredOn time.Time) eventBase {
	return eventBase{name: name, aggregateID: aggregateID, occurredOn: occurredOn}
}

func (e *eventBase) Name() string          { return e.name }
func (e *eventBase) OccurredOn() time.Time { return e.occurredOn }
func (e *eventBase) AggregateID() string   { return e.aggregateID }

func (e *eventBase) MarkForDispatch() bool {
	if e.dispatched {
		return false
	}
	e.dispatched = true
	return true
}

func (e *eventBase) MarkedForDispatch() bool { return e.dispatched }

func (e *eventBase) isDomainEvent() {}

// UserRegistered is raised when a new user is created.
type UserRegistered struct {
	eventBase
	UserID   string
	OrgID    string
	Email    string
	Username string
}

func NewUserRegistered(u *User) *UserRegistered {
	return &UserRegistered{
		eventBase: newEventBase(EventUserRegistered, u.ID, u.CreatedAt),
		UserID:    u.ID,
		OrgID:     u.OrgID,
		Email:     u.Email.String(),
		Username:  u.Username,
	}
}

// UserLoggedIn is raised on a successful login.
type UserLoggedIn struct {
	eventBase
	UserID    string
	OrgID     string
	Email     string
	LoginAt   time.Time
	IPAddress string
	UserAgent string
}

func NewUserLoggedIn(u *User, at time.Time, ip, userAgent string) *UserLoggedIn {
	return &UserLoggedIn{
		eventBase: newEventBase(EventUserLoggedIn, u.ID, at),
		UserID:    u.ID,
		OrgID:     u.OrgID,
		Email:     u.Email.String(),
		LoginAt:   at,
		IPAddress: ip,
		UserAgent: userAgent,
	}
}

// RoleCreated is raised when a role is created.
type RoleCreated struct {
	eventBase
	RoleID   string
	OrgID    string
	RoleName string
}

func NewRoleCreated(r *Role) *RoleCreated {
	return &RoleCreated{
		eventBase: newEventBase(EventRoleCreated, r.ID, r.CreatedAt),
		RoleID:    r.ID,
		OrgID:     r.OrgID,
		RoleName:  r.Name,
	}
}

// RoleUpdated is raised when a role's name, description or active flag changes.
type RoleUpdated struct {
	eventBase
	RoleID   string
	OrgID    string
	RoleName string
	Active   bool
}

func NewRoleUpdated(r *Role) *RoleUpdated {
	return &RoleUpdated{
		eventBase: newEventBase(EventRoleUpdated, r.ID, r.UpdatedAt),
		RoleID:    r.ID,
		OrgID:     r.OrgID,
		RoleName:  r.Name,
		Active:    r.Active,
	}
}

// PermissionChanged is raised when a role's permission set changes. Callers
// caching resolved permission sets must invalidate on this event.
type PermissionChanged struct {
	eventBase
	RoleID        string
	OrgID         string
	PermissionIDs []string
}

func NewPermissionChanged(r *Role) *PermissionChanged {
	snapshot := make([]string, len(r.PermissionIDs))
	copy(snapshot, r.PermissionIDs)
	return &PermissionChanged{
		eventBase:     newEventBase(EventPermissionChanged, r.ID, r.UpdatedAt),
		RoleID:        r.ID,
		OrgID:         r.OrgID,
		PermissionIDs: snapshot,
	}
}

// SessionExpired is raised when an expired session is detected. OccurredOn is
// the wall-clock time of the expiry check, not the session deadline.
type SessionExpired struct {
	eventBase
	SessionID string
	UserID    string
	OrgID     string
	ExpiresAt time.Time
}

func NewSessionExpired(s *Session, detectedAt time.Time) *SessionExpired {
	return &SessionExpired{
		eventBase: newEventBase(EventSessionExpired, s.ID, detectedAt),
		SessionID: s.ID,
		UserID:    s.UserID,
		OrgID:     s.OrgID,
		ExpiresAt: s.ExpiresAt,
	}
}
