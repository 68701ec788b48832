package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"proofvault/pkg/requestcontext"
)

// Publisher captures registry events. It is append-only; subscribers receive
// events through the worker, never by querying the service.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// ChannelPublisher buffers events for the worker so event delivery never
// extends the registry's critical section.
type ChannelPublisher struct {
	ch     chan Event
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &ChannelPublisher{ch: make(chan Event, buffer), logger: logger}
}

// Emit stamps the event and hands it to the worker. Emission happens after
// the mutation committed, so a full buffer may not fail the operation; the
// event is dropped with a log line instead.
func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	select {
	case p.ch <- event:
	default:
		p.logger.ErrorContext(ctx, "audit buffer full, dropping event",
			"event_id", event.ID,
			"kind", string(event.Kind),
			"proof_id", event.ProofID.String(),
		)
	}
	return nil
}

// Events exposes the inbox for the worker.
func (p *ChannelPublisher) Events() <-chan Event {
	return p.ch
}
