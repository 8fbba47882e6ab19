// Package eventbus broadcasts execution lifecycle events to interested
// consumers. Publishing is best-effort from the executor's point of view:
// a bus failure never fails the run.
package eventbus

import (
	"context"

	"github.com/weftworks/weft/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
