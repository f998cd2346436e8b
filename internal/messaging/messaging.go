// Package messaging defines the message bus abstraction shared by the outbox publisher
// and the event consumers. Drivers live in subpackages (rabbitmq, kafka, nats, pubsub);
// each one provides at-least-once delivery and no ordering across messages.
package messaging

import (
	"context"

	"github.com/allisson/orderflow/internal/events"
)

// Header names attached to every message by the drivers that support headers.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
)

// Message is a serialized integration event in transit.
type Message struct {
	ID   string
	Type events.Type
	Body []byte
}

// NewMessage encodes an integration event.
func NewMessage(e events.Event) (Message, error) {
	body, err := events.Encode(e)
	if err != nil {
		return Message{}, err
	}
	return Message{ID: e.EventID().String(), Type: e.EventType(), Body: body}, nil
}

// Publisher sends messages to the bus. A nil error means the broker accepted the message.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Handler processes one delivery. Returning nil acknowledges the message; returning an
// error leaves it unacknowledged so the bus redelivers it later.
type Handler func(ctx context.Context, msg Message) error

// Subscriber delivers messages of one contract type to a handler. Subscribe blocks until
// ctx is cancelled or the subscription fails.
type Subscriber interface {
	Subscribe(ctx context.Context, eventType events.Type, handler Handler) error
}

// Bus is a full driver.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Middleware decorates a Handler.
type Middleware func(Handler) Handler

// Chain applies middlewares so the first one is outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
