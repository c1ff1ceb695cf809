//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Platform is the chat platform as the engine needs it.
// Private conversations use the user identifier as chat identifier.
type Platform interface {
	Send(ctx context.Context, chat domain.ChatID, text string, prompt domain.Prompt) error
	Reply(ctx context.Context, to domain.MessageRef, text string) error
	DeleteMessage(ctx context.Context, ref domain.MessageRef) error
	BanMember(ctx context.Context, group domain.ChatID, user domain.UserID) error
	IsChatAdmin(ctx context.Context, chat domain.ChatID, user domain.UserID) (bool, error)
	SendToAdmin(ctx context.Context, dest domain.AdminDestination, text string) error
}

// Notifier surfaces events to the operator. Implementations must never block nor fail the caller.
type Notifier interface {
	Notify(text string)
}

// Dispatcher accepts inbound events from the platform adapter.
type Dispatcher interface {
	Dispatch(evt event.Event)
}

// EventHandler processes one event; errors are already handled and only reported.
type EventHandler interface {
	Handle(ctx context.Context, evt event.Event) error
}
