package live

import (
	"context"
	"errors"

	"github.com/oshokin/meet-desk/internal/logger"
)

// Sink receives live events outside the process.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Fanout delivers an event to every sink and joins their errors.
type Fanout []Sink

// Deliver implements Sink.
func (f Fanout) Deliver(ctx context.Context, event Event) error {
	var errs []error

	for _, sink := range f {
		if sink == nil {
			continue
		}

		if err := sink.Deliver(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type bestEffort struct {
	sink Sink
}

// BestEffort wraps sink so delivery errors are logged and swallowed.
//
//nolint:ireturn // Callers only need the Sink behavior.
func BestEffort(sink Sink) Sink {
	return &bestEffort{sink: sink}
}

// Deliver implements Sink and never fails.
func (b *bestEffort) Deliver(ctx context.Context, event Event) error {
	if b.sink == nil {
		return nil
	}

	if err := b.sink.Deliver(ctx, event); err != nil {
		logger.WarnKV(ctx, "Failed to deliver live event",
			"contest_id", event.ContestID,
			"type", event.Type,
			"error", err,
		)
	}

	return nil
}
