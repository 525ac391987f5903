package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/authcore/identity-system/internal/core/domain"
)

// LogSink publishes domain events to the structured log. It stands in for an
// external event transport; swapping in a message-bus sink only requires
// another ports.EventSink implementation.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, event domain.Event) error {
	s.log.Info().
		Str("event", event.Name()).
		Str("aggregate_id", event.AggregateID()).
		Time("occurred_on", event.OccurredOn()).
		Msg("domain event")
	return nil
}
