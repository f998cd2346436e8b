// Package pubsub implements the message bus on top of gocloud.dev/pubsub, so any
// portable provider URL (mem://, rabbit://, nats://, kafka://, gcppubsub://) can back it.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub"

	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/messaging"
)

// Config holds the URL templates of the bus. "{type}" is replaced with the contract
// type and "{service}" with the consuming service name.
type Config struct {
	TopicURLTemplate        string
	SubscriptionURLTemplate string
	Service                 string
}

// Bus publishes and consumes integration events through portable topics.
type Bus struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	topics map[events.Type]*pubsub.Topic
	subs   []*pubsub.Subscription
}

// New opens one topic per contract type.
func New(ctx context.Context, config Config, logger *slog.Logger) (*Bus, error) {
	b := &Bus{
		config: config,
		logger: logger,
		topics: make(map[events.Type]*pubsub.Topic),
	}

	for _, eventType := range events.AllTypes() {
		topic, err := pubsub.OpenTopic(ctx, b.expand(config.TopicURLTemplate, eventType))
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to open topic for %s: %w", eventType, err)
		}
		b.topics[eventType] = topic
	}

	return b, nil
}

func (b *Bus) expand(template string, eventType events.Type) string {
	return strings.NewReplacer(
		"{type}", string(eventType),
		"{service}", b.config.Service,
	).Replace(template)
}

// Publish sends msg to the topic of its type.
func (b *Bus) Publish(ctx context.Context, msg messaging.Message) error {
	b.mu.Lock()
	topic, ok := b.topics[msg.Type]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("no topic for event type %q", msg.Type)
	}

	return topic.Send(ctx, &pubsub.Message{
		Body: msg.Body,
		Metadata: map[string]string{
			messaging.HeaderEventID:   msg.ID,
			messaging.HeaderEventType: string(msg.Type),
		},
	})
}

// Subscribe receives messages of eventType until ctx is cancelled. Failed deliveries are
// nacked when the provider supports it and otherwise left to expire their ack deadline.
func (b *Bus) Subscribe(ctx context.Context, eventType events.Type, handler messaging.Handler) error {
	sub, err := pubsub.OpenSubscription(ctx, b.expand(b.config.SubscriptionURLTemplate, eventType))
	if err != nil {
		return fmt.Errorf("failed to open subscription for %s: %w", eventType, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	for {
		m, err := sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to receive %s: %w", eventType, err)
		}

		msg := messaging.Message{
			ID:   m.Metadata[messaging.HeaderEventID],
			Type: eventType,
			Body: m.Body,
		}

		if err := handler(ctx, msg); err != nil {
			if m.Nackable() {
				m.Nack()
			}
			continue
		}
		m.Ack()
	}
}

// Close shuts down every topic and subscription opened by the bus.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := context.Background()
	var errs []error
	for _, sub := range b.subs {
		errs = append(errs, sub.Shutdown(ctx))
	}
	for _, topic := range b.topics {
		errs = append(errs, topic.Shutdown(ctx))
	}
	b.subs = nil
	b.topics = map[events.Type]*pubsub.Topic{}

	return errors.Join(errs...)
}
