package workers

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/domain/event"
	"gatekeeper/errors"
	"log/slog"
	"time"
)

// Ensure *EventWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*EventWorker)(nil)

// EventWorker owns one shard of users: events of the same user are handled
// one after the other, in arrival order.
type EventWorker struct {
	shard   int
	events  <-chan event.Event
	handler contract.EventHandler
	timeout time.Duration
	log     *slog.Logger
}

func NewEventWorker(
	shard int,
	events <-chan event.Event,
	handler contract.EventHandler,
	timeout time.Duration,
	log *slog.Logger) *EventWorker {
	return &EventWorker{
		shard:   shard,
		events:  events,
		handler: handler,
		timeout: timeout,
		log:     log.With("shard", shard),
	}
}

func (w *EventWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.handle(ctx, evt)
		}
	}
}

// handle isolates one event: a panic or an error is logged and the loop goes on.
func (w *EventWorker) handle(ctx context.Context, evt event.Event) {
	eventType := fmt.Sprintf("%T", evt)
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Event handler panicked",
				"event", eventType, "user_id", evt.Subject(), "error", fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r))
		}
	}()

	handlerCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.handler.Handle(handlerCtx, evt); err != nil {
		w.log.Warn("Event handling failed", "event", eventType, "user_id", evt.Subject(), "error", err)
		return
	}
	w.log.Debug("Event handled", "event", eventType, "user_id", evt.Subject(), "latency", time.Since(start))
}
