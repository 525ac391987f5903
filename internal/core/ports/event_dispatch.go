package ports

import (
	"context"

	"github.com/authcore/identity-system/internal/core/domain"
)

// EventDispatcher is the handoff boundary between aggregates and the external
// event pipeline. Enqueue claims each event (monotonic dispatch mark) and
// guarantees at-most-once delivery to the sink: an already-claimed event is
// silently skipped.
type EventDispatcher interface {
	Enqueue(events ...domain.Event)
}

// EventSink receives claimed domain events. Implementations own delivery to
// whatever transport carries events out of the service (message bus, log
// sink).
type EventSink interface {
	Publish(ctx context.Context, event domain.Event) error
}
