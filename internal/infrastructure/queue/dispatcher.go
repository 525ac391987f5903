package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/authcore/identity-system/internal/api/metrics"
	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes domain events to a fixed set of workers using consistent
// hashing on the aggregate ID, guaranteeing per-aggregate delivery ordering.
// Enqueue claims each event via its monotonic dispatch mark, so an event is
// handed to the sink at most once no matter how often it is enqueued.
type Dispatcher struct {
	workers []chan domain.Event
	sink    ports.EventSink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.EventSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Event, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue claims and queues events. Events already claimed for dispatch are
// skipped silently. The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(events ...domain.Event) {
	for _, event := range events {
		if !event.MarkForDispatch() {
			continue
		}
		metrics.EventsDispatchedTotal.WithLabelValues(event.Name()).Inc()
		d.workers[d.shardIndex(event.AggregateID())] <- event
	}
}

// shardIndex maps an aggregate ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(aggregateID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(aggregateID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sink.Publish(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("event", event.Name()).
					Str("aggregate_id", event.AggregateID()).
					Int("worker_id", id).
					Msg("event publish failed")
			}
		}
	}
}
