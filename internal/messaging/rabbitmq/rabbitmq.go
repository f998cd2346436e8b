// Package rabbitmq implements the message bus on RabbitMQ. Events are published to a
// durable topic exchange with the contract type as routing key, and every service
// consumes from its own durable queue named "<Type>-<service>".
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/messaging"
)

// DefaultConfirmTimeout bounds how long Publish waits for a broker confirmation.
const DefaultConfirmTimeout = 5 * time.Second

var (
	// ErrPublishNacked is returned when the broker negatively acknowledges a publish.
	ErrPublishNacked = errors.New("rabbitmq: publish nacked by broker")
	// ErrConfirmTimeout is returned when no confirmation arrives within the timeout.
	ErrConfirmTimeout = errors.New("rabbitmq: confirmation timed out")
	// ErrNotConfirmMode is returned when the publish channel is not in confirm mode.
	ErrNotConfirmMode = errors.New("rabbitmq: channel not in confirm mode")
)

// Channel is the subset of *amqp.Channel used by the bus.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Confirm(noWait bool) error
	PublishWithDeferredConfirmWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) (*amqp.DeferredConfirmation, error)
	Consume(
		queue, consumer string,
		autoAck, exclusive, noLocal, noWait bool,
		args amqp.Table,
	) (<-chan amqp.Delivery, error)
	Close() error
}

// Connection opens channels. It is satisfied by an adapter around *amqp.Connection.
type Connection interface {
	Channel() (Channel, error)
	Close() error
}

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Config holds the broker settings.
type Config struct {
	URL            string
	Exchange       string
	Service        string
	Prefetch       int
	ConfirmTimeout time.Duration
}

// Bus is a RabbitMQ backed messaging.Bus.
type Bus struct {
	conn   Connection
	config Config
	logger *slog.Logger

	publishMu sync.Mutex
	publishCh Channel
}

// New dials the broker and prepares a confirm-mode publish channel.
func New(config Config, logger *slog.Logger) (*Bus, error) {
	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	bus, err := NewWithConnection(amqpConnection{conn}, config, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return bus, nil
}

// NewWithConnection builds a bus on an existing connection.
func NewWithConnection(conn Connection, config Config, logger *slog.Logger) (*Bus, error) {
	if config.ConfirmTimeout <= 0 {
		config.ConfirmTimeout = DefaultConfirmTimeout
	}
	if config.Prefetch <= 0 {
		config.Prefetch = 10
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}
	if err := declareExchange(ch, config.Exchange); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return &Bus{conn: conn, config: config, logger: logger, publishCh: ch}, nil
}

func declareExchange(ch Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

// QueueName returns the durable queue a service consumes eventType from.
func QueueName(eventType events.Type, service string) string {
	return string(eventType) + "-" + service
}

// Publish sends a persistent message and waits for the broker confirmation.
func (b *Bus) Publish(ctx context.Context, msg messaging.Message) error {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	dc, err := b.publishCh.PublishWithDeferredConfirmWithContext(
		ctx,
		b.config.Exchange,
		string(msg.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Type),
			Timestamp:    time.Now().UTC(),
			Body:         msg.Body,
			Headers: amqp.Table{
				messaging.HeaderEventID:   msg.ID,
				messaging.HeaderEventType: string(msg.Type),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", msg.Type, err)
	}
	if dc == nil {
		return ErrNotConfirmMode
	}

	confirmCtx, cancel := context.WithTimeout(ctx, b.config.ConfirmTimeout)
	defer cancel()

	acked, err := dc.WaitContext(confirmCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrConfirmTimeout
		}
		return fmt.Errorf("failed to confirm %s: %w", msg.Type, err)
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// Subscribe declares and binds the service queue for eventType, then consumes it with
// manual acknowledgement until ctx is cancelled. Failed deliveries are requeued.
func (b *Bus) Subscribe(ctx context.Context, eventType events.Type, handler messaging.Handler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consume channel: %w", err)
	}
	defer func() {
		_ = ch.Close()
	}()

	queue := QueueName(eventType, b.config.Service)
	if err := declareExchange(ch, b.config.Exchange); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, string(eventType), b.config.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	if err := ch.Qos(b.config.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos on %s: %w", queue, err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("delivery channel closed for %s", queue)
			}
			b.deliver(ctx, eventType, d, handler)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, eventType events.Type, d amqp.Delivery, handler messaging.Handler) {
	msg := messaging.Message{ID: d.MessageId, Type: eventType, Body: d.Body}

	if err := handler(ctx, msg); err != nil {
		if nackErr := d.Nack(false, true); nackErr != nil && b.logger != nil {
			b.logger.Error("failed to nack delivery",
				slog.String("event_type", string(eventType)),
				slog.String("message_id", msg.ID),
				slog.Any("error", nackErr),
			)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil && b.logger != nil {
		b.logger.Error("failed to ack delivery",
			slog.String("event_type", string(eventType)),
			slog.String("message_id", msg.ID),
			slog.Any("error", ackErr),
		)
	}
}

// Close closes the publish channel and the connection.
func (b *Bus) Close() error {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	return errors.Join(b.publishCh.Close(), b.conn.Close())
}
