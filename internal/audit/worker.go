package audit

import (
	"context"
	"log/slog"
)

// Worker drains the publisher's inbox into one or more sinks. A failing sink
// is logged and skipped: event delivery must never take the registry down,
// and the mutation the event describes has already committed.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit sink append failed",
						"event_id", event.ID,
						"kind", string(event.Kind),
						"error", err,
					)
				}
			}
		}
	}
}
