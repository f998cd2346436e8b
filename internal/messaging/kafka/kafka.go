// Package kafka implements the message bus on Kafka. Each contract type has its own
// topic ("<prefix><Type>") and every service reads it with its own consumer group, so
// each service sees every event once per group.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/messaging"
)

// DefaultRetryDelay is the pause before a failed delivery is handed to the handler again.
const DefaultRetryDelay = 15 * time.Second

// Writer is the subset of *kafka.Writer used by the bus.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Reader is the subset of *kafka.Reader used by the bus.
type Reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ReaderFactory builds a reader for a topic and consumer group.
type ReaderFactory func(topic, groupID string) Reader

// Config holds the cluster settings.
type Config struct {
	Brokers     []string
	TopicPrefix string
	Service     string
	// RetryDelay is the wait between attempts on a delivery whose handler failed. Kafka
	// has no per-message negative acknowledgement, so the offset is held until it succeeds.
	RetryDelay time.Duration
}

// Bus is a Kafka backed messaging.Bus.
type Bus struct {
	config    Config
	writer    Writer
	newReader ReaderFactory
	clock     clockwork.Clock
	logger    *slog.Logger

	mu      sync.Mutex
	readers []Reader
}

// New creates a bus with a shared writer. Topics are created on first write when the
// cluster allows it.
func New(config Config, logger *slog.Logger) *Bus {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(config.Brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}

	newReader := func(topic, groupID string) Reader {
		return kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  config.Brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}

	return NewWithClients(config, writer, newReader, clockwork.NewRealClock(), logger)
}

// NewWithClients builds a bus from explicit clients.
func NewWithClients(
	config Config,
	writer Writer,
	newReader ReaderFactory,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Bus {
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	return &Bus{config: config, writer: writer, newReader: newReader, clock: clock, logger: logger}
}

// Topic returns the topic of eventType.
func (b *Bus) Topic(eventType events.Type) string {
	return b.config.TopicPrefix + string(eventType)
}

// Publish writes msg keyed by its id, waiting for all in-sync replicas.
func (b *Bus) Publish(ctx context.Context, msg messaging.Message) error {
	err := b.writer.WriteMessages(ctx, kafkago.Message{
		Topic: b.Topic(msg.Type),
		Key:   []byte(msg.ID),
		Value: msg.Body,
		Headers: []kafkago.Header{
			{Key: messaging.HeaderEventID, Value: []byte(msg.ID)},
			{Key: messaging.HeaderEventType, Value: []byte(msg.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to produce %s: %w", msg.Type, err)
	}
	return nil
}

// Subscribe reads the topic of eventType with the service consumer group. An offset is
// committed only after the handler succeeds.
func (b *Bus) Subscribe(ctx context.Context, eventType events.Type, handler messaging.Handler) error {
	topic := b.Topic(eventType)
	reader := b.newReader(topic, b.config.Service)

	b.mu.Lock()
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch from %s: %w", topic, err)
		}

		msg := messaging.Message{ID: headerValue(m, messaging.HeaderEventID), Type: eventType, Body: m.Value}
		if !b.handleUntilSuccess(ctx, msg, handler) {
			return nil
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if b.logger != nil {
				b.logger.Error("failed to commit offset",
					slog.String("topic", m.Topic),
					slog.Int("partition", m.Partition),
					slog.Int64("offset", m.Offset),
					slog.Any("error", err),
				)
			}
		}
	}
}

// handleUntilSuccess reports false when ctx ends before the handler succeeds.
func (b *Bus) handleUntilSuccess(ctx context.Context, msg messaging.Message, handler messaging.Handler) bool {
	for {
		err := handler(ctx, msg)
		if err == nil {
			return true
		}

		if b.logger != nil {
			b.logger.Warn("delivery failed, holding offset",
				slog.String("event_type", string(msg.Type)),
				slog.String("message_id", msg.ID),
				slog.Duration("retry_in", b.config.RetryDelay),
				slog.Any("error", err),
			)
		}

		select {
		case <-ctx.Done():
			return false
		case <-b.clock.After(b.config.RetryDelay):
		}
	}
}

func headerValue(m kafkago.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return string(m.Key)
}

// Close closes the writer and every reader.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	errs := []error{b.writer.Close()}
	for _, r := range b.readers {
		errs = append(errs, r.Close())
	}
	b.readers = nil
	return errors.Join(errs...)
}
