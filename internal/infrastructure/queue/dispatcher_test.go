package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/authcore/identity-system/internal/core/domain"
)

// captureSink records every published event and signals arrival.
type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
	seen   chan struct{}
}

func newCaptureSink(capacity int) *captureSink {
	return &captureSink{seen: make(chan struct{}, capacity)}
}

func (s *captureSink) Publish(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	s.seen <- struct{}{}
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *captureSink) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
}

func newTestEvent(t *testing.T) domain.Event {
	t.Helper()
	email, err := domain.NewEmail("alice@acme.io")
	if err != nil {
		t.Fatalf("email: %v", err)
	}
	user := domain.NewUser(email, "alice", "Alice", "Smith", "org_1")
	return user.Events()[0]
}

func TestDispatcher_DeliversToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newCaptureSink(4)
	d := NewDispatcher(4, sink, zerolog.Nop())
	d.Start(ctx)

	ev := newTestEvent(t)
	d.Enqueue(ev)

	sink.wait(t, 1)
	if sink.count() != 1 {
		t.Fatalf("expected 1 delivered event, got %d", sink.count())
	}
	if !ev.MarkedForDispatch() {
		t.Fatalf("enqueued event must be claimed")
	}
}

func TestDispatcher_AtMostOncePerEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newCaptureSink(8)
	d := NewDispatcher(2, sink, zerolog.Nop())
	d.Start(ctx)

	ev := newTestEvent(t)
	d.Enqueue(ev)
	d.Enqueue(ev) // second enqueue of a claimed event is skipped
	d.Enqueue(ev, ev)

	sink.wait(t, 1)

	// Give a stray duplicate a chance to surface before asserting.
	time.Sleep(50 * time.Millisecond)
	if sink.count() != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", sink.count())
	}
}

func TestDispatcher_PreClaimedEventIsSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newCaptureSink(4)
	d := NewDispatcher(2, sink, zerolog.Nop())
	d.Start(ctx)

	claimed := newTestEvent(t)
	claimed.MarkForDispatch()
	fresh := newTestEvent(t)

	d.Enqueue(claimed, fresh)

	sink.wait(t, 1)
	time.Sleep(50 * time.Millisecond)
	if sink.count() != 1 {
		t.Fatalf("pre-claimed event must be skipped, got %d deliveries", sink.count())
	}
}

func TestDispatcher_ShardIndexIsDeterministic(t *testing.T) {
	d := NewDispatcher(8, newCaptureSink(1), zerolog.Nop())

	for _, id := range []string{"a", "b", "user_42", "session_xyz"} {
		first := d.shardIndex(id)
		for i := 0; i < 10; i++ {
			if got := d.shardIndex(id); got != first {
				t.Fatalf("shard index for %q changed: %d vs %d", id, first, got)
			}
		}
		if first < 0 || first >= 8 {
			t.Fatalf("shard index out of range: %d", first)
		}
	}
}
