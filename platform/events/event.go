// Package events is the in-process domain event bus shared by the API and the
// scheduler. Event types live in internal/events.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus. EventName doubles as the
// subscription key and the activity log action.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by every domain event for its timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps the event in UTC; readers convert to the app timezone.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler reacts to one published event. A returned error is logged on
// Publish and returned by PublishSync; it never stops other handlers.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events between modules of one process.
type Bus interface {
	// Publish returns immediately. Handlers run concurrently on a context
	// that outlives the caller's request.
	Publish(ctx context.Context, event Event)

	// PublishSync runs the handlers in order on ctx and joins their errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers handler under an EventName value.
	Subscribe(eventName string, handler Handler)
}

var _ Bus = (*InMemoryBus)(nil)
