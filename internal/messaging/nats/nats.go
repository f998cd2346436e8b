// Package nats implements the message bus on NATS JetStream. All contracts live in one
// stream under "<prefix>.<Type>" subjects, and each service reads a type through its own
// durable consumer.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/messaging"
)

// Defaults applied by New when the config leaves them empty.
const (
	DefaultNakDelay        = 15 * time.Second
	DefaultDuplicateWindow = 2 * time.Hour
	DefaultAckWait         = 30 * time.Second
)

// Config holds the JetStream settings.
type Config struct {
	URL           string
	Stream        string
	SubjectPrefix string
	Service       string
	// NakDelay is how long JetStream waits before redelivering a nacked message.
	NakDelay        time.Duration
	DuplicateWindow time.Duration
	AckWait         time.Duration
}

func (c Config) withDefaults() Config {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = strings.ToLower(c.Stream)
	}
	if c.NakDelay <= 0 {
		c.NakDelay = DefaultNakDelay
	}
	if c.DuplicateWindow <= 0 {
		c.DuplicateWindow = DefaultDuplicateWindow
	}
	if c.AckWait <= 0 {
		c.AckWait = DefaultAckWait
	}
	return c
}

// Bus is a JetStream backed messaging.Bus.
type Bus struct {
	nc     *natsgo.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	config Config
	logger *slog.Logger
}

// New connects, ensures the stream exists with the configured subjects and returns the bus.
func New(ctx context.Context, config Config, logger *slog.Logger) (*Bus, error) {
	config = config.withDefaults()

	nc, err := natsgo.Connect(config.URL,
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if logger != nil && err != nil {
				logger.Warn("nats disconnected", slog.Any("error", err))
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			if logger != nil {
				logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, StreamConfig(config))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", config.Stream, err)
	}

	return &Bus{nc: nc, js: js, stream: stream, config: config, logger: logger}, nil
}

// StreamConfig returns the stream definition for config.
func StreamConfig(config Config) jetstream.StreamConfig {
	config = config.withDefaults()
	return jetstream.StreamConfig{
		Name:        config.Stream,
		Description: "orderflow integration events",
		Subjects:    []string{config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		Duplicates:  config.DuplicateWindow,
	}
}

// Subject returns the subject of eventType.
func Subject(config Config, eventType events.Type) string {
	return config.withDefaults().SubjectPrefix + "." + string(eventType)
}

// ConsumerName returns the durable consumer a service reads eventType with.
func ConsumerName(eventType events.Type, service string) string {
	return string(eventType) + "-" + service
}

// Publish stores msg in the stream. The message id doubles as the JetStream dedup id, so
// a republished outbox row inside the duplicate window is dropped by the server.
func (b *Bus) Publish(ctx context.Context, msg messaging.Message) error {
	_, err := b.js.PublishMsg(ctx, &natsgo.Msg{
		Subject: Subject(b.config, msg.Type),
		Data:    msg.Body,
		Header: natsgo.Header{
			messaging.HeaderEventID:   []string{msg.ID},
			messaging.HeaderEventType: []string{string(msg.Type)},
		},
	},
		jetstream.WithMsgID(msg.ID),
		jetstream.WithExpectStream(b.config.Stream),
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", msg.Type, err)
	}
	return nil
}

// Subscribe consumes eventType through the service durable consumer until ctx is done.
func (b *Bus) Subscribe(ctx context.Context, eventType events.Type, handler messaging.Handler) error {
	name := ConsumerName(eventType, b.config.Service)
	consumer, err := b.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          name,
		Durable:       name,
		FilterSubject: Subject(b.config, eventType),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWait,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure consumer %s: %w", name, err)
	}

	consumeCtx, err := consumer.Consume(func(m jetstream.Msg) {
		b.deliver(ctx, eventType, m, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", name, err)
	}

	<-ctx.Done()
	consumeCtx.Stop()
	return nil
}

// delivery is the part of jetstream.Msg the bus settles.
type delivery interface {
	Data() []byte
	Headers() natsgo.Header
	Ack() error
	NakWithDelay(delay time.Duration) error
}

func (b *Bus) deliver(ctx context.Context, eventType events.Type, d delivery, handler messaging.Handler) {
	msg := messaging.Message{
		ID:   d.Headers().Get(messaging.HeaderEventID),
		Type: eventType,
		Body: d.Data(),
	}

	var settleErr error
	if err := handler(ctx, msg); err != nil {
		settleErr = d.NakWithDelay(b.config.NakDelay)
	} else {
		settleErr = d.Ack()
	}

	if settleErr != nil && b.logger != nil {
		b.logger.Error("failed to settle delivery",
			slog.String("event_type", string(eventType)),
			slog.String("message_id", msg.ID),
			slog.Any("error", settleErr),
		)
	}
}

// Close drains the connection.
func (b *Bus) Close() error {
	if b.nc == nil {
		return nil
	}
	return b.nc.Drain()
}
