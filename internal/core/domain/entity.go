package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity carries the identity and timestamp fields shared by every aggregate.
// Identity is the (ID, OrgID) pair: two entities are equal iff both match,
// regardless of any other field values.
type Entity struct {
	ID        string    `json:"id" bson:"_id"`
	OrgID     string    `json:"org_id" bson:"org_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	events []Event
}

// NewEntity mints a fresh identity scoped to orgID. An empty orgID is legal
// and marks the entity as system-wide (see Permission.IsSystem).
func NewEntity(orgID string) Entity {
	now := time.Now().UTC()
	return Entity{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Equals reports identity equality: same ID within the same org.
func (e *Entity) Equals(other *Entity) bool {
	if other == nil {
		return false
	}
	return e.ID == other.ID && e.OrgID == other.OrgID
}

// Touch advances UpdatedAt. Every mutating operation must call it.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// Raise appends a domain event to the aggregate's buffer, preserving
// insertion order.
func (e *Entity) Raise(ev Event) {
	e.events = append(e.events, ev)
}

// Events returns the accumulated events in the order they were raised.
func (e *Entity) Events() []Event {
	return e.events
}

// ClearEvents resets the buffer. Call after a successful transactional commit.
func (e *Entity) ClearEvents() {
	e.events = nil
}

// MarkEventsForDispatch claims every accumulated event for the external event
// pipeline. Events already claimed are left untouched.
func (e *Entity) MarkEventsForDispatch() {
	for _, ev := range e.events {
		ev.MarkForDispatch()
	}
}
