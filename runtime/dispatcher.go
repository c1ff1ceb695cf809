package runtime

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/domain/event"
	"gatekeeper/errors"
	"gatekeeper/services"
)

var _ contract.EventHandler = (*EventDispatcher)(nil)

// EventDispatcher routes each event to the service owning it.
type EventDispatcher struct {
	join      services.IJoinService
	collector services.ICollectorService
	router    services.IRouterService
	operator  services.IOperatorService
}

func NewEventDispatcher(
	join services.IJoinService,
	collector services.ICollectorService,
	router services.IRouterService,
	operator services.IOperatorService,
) *EventDispatcher {
	return &EventDispatcher{join: join, collector: collector, router: router, operator: operator}
}

func (d *EventDispatcher) Handle(ctx context.Context, evt event.Event) error {
	switch e := evt.(type) {
	case event.MemberUpdated:
		return d.join.HandleMemberUpdate(ctx, e)
	case event.MessageReceived:
		return d.router.HandleMessage(ctx, e)
	case event.ContactShared:
		return d.collector.HandleContact(ctx, e)
	case event.FieldSelected:
		return d.collector.HandleFieldSelected(ctx, e)
	case event.FinishRequested:
		return d.collector.HandleFinish(ctx, e)
	case event.StartRequested:
		return d.collector.HandleStart(ctx, e)
	case event.CommandIssued:
		return d.operator.HandleCommand(ctx, e)
	default:
		return fmt.Errorf("%w: %T", errors.ErrInvalidPayload, evt)
	}
}
