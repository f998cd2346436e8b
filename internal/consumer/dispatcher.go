// Package consumer routes inbound integration events to domain commands. The dispatcher
// decodes each delivery, retries optimistic concurrency conflicts locally and decides
// whether the delivery is acknowledged or handed back to the bus.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/messaging"
	"github.com/allisson/orderflow/internal/metrics"
)

// Outcome is the result of a handler that completed without error.
type Outcome int

const (
	// Handled means the command changed state.
	Handled Outcome = iota
	// Duplicate means the event had already been applied.
	Duplicate
)

// HandlerFunc applies one decoded integration event.
type HandlerFunc func(ctx context.Context, event events.Event) (Outcome, error)

// Config holds dispatcher configuration.
type Config struct {
	ConflictMaxAttempts int
	ConflictBackoff     time.Duration
	// RedeliveryIntervals are the in-process retries applied before a delivery is nacked.
	RedeliveryIntervals []time.Duration
}

// Dispatcher subscribes registered handlers to the bus.
type Dispatcher struct {
	config     Config
	subscriber messaging.Subscriber
	handlers   map[events.Type]HandlerFunc
	clock      clockwork.Clock
	metrics    metrics.ReliabilityMetrics
	logger     *slog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	config Config,
	subscriber messaging.Subscriber,
	clock clockwork.Clock,
	reliabilityMetrics metrics.ReliabilityMetrics,
	logger *slog.Logger,
) *Dispatcher {
	if config.ConflictMaxAttempts < 1 {
		config.ConflictMaxAttempts = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if reliabilityMetrics == nil {
		reliabilityMetrics = metrics.NewNoOpReliabilityMetrics()
	}
	return &Dispatcher{
		config:     config,
		subscriber: subscriber,
		handlers:   make(map[events.Type]HandlerFunc),
		clock:      clock,
		metrics:    reliabilityMetrics,
		logger:     logger,
	}
}

// Register binds a handler to an event type, replacing any previous one.
func (d *Dispatcher) Register(eventType events.Type, handler HandlerFunc) {
	d.handlers[eventType] = handler
}

// Types returns the registered event types in AllTypes order.
func (d *Dispatcher) Types() []events.Type {
	types := make([]events.Type, 0, len(d.handlers))
	for _, t := range events.AllTypes() {
		if _, ok := d.handlers[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// Run subscribes every registered type and blocks until ctx is cancelled or a
// subscription fails.
func (d *Dispatcher) Run(ctx context.Context) error {
	types := d.Types()
	if len(types) == 0 {
		return errors.New("no event handlers registered")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, eventType := range types {
		handler := messaging.Chain(d.Handle,
			messaging.WithRedelivery(d.config.RedeliveryIntervals, d.clock, d.logger),
		)
		g.Go(func() error {
			if d.logger != nil {
				d.logger.Info("subscribing to event", slog.String("event_type", string(eventType)))
			}
			err := d.subscriber.Subscribe(gctx, eventType, handler)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("subscription %s failed: %w", eventType, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Handle processes one delivery. It returns nil for every outcome that must be
// acknowledged: success, duplicates, undecodable payloads, missing aggregates and business
// rule violations. Infrastructure failures and exhausted conflict retries return an error.
func (d *Dispatcher) Handle(ctx context.Context, msg messaging.Message) error {
	handler, ok := d.handlers[msg.Type]
	if !ok {
		d.reject(ctx, msg, apperrors.Wrap(apperrors.ErrMapping, fmt.Sprintf("no handler for %s", msg.Type)))
		return nil
	}

	event, err := events.Decode(msg.Type, msg.Body)
	if err != nil {
		d.reject(ctx, msg, err)
		return nil
	}

	outcome, err := d.handleWithConflictRetry(ctx, msg, event, handler)
	switch {
	case err == nil:
		d.metrics.RecordConsume(ctx, string(msg.Type), outcomeLabel(outcome))
		if d.logger != nil {
			d.logger.Debug("event handled",
				slog.String("event_type", string(msg.Type)),
				slog.String("event_id", event.EventID().String()),
				slog.String("outcome", outcomeLabel(outcome)),
			)
		}
		return nil

	case isPermanent(err):
		d.reject(ctx, msg, err)
		return nil

	default:
		d.metrics.RecordConsume(ctx, string(msg.Type), metrics.ConsumeFailed)
		return err
	}
}

func (d *Dispatcher) handleWithConflictRetry(
	ctx context.Context,
	msg messaging.Message,
	event events.Event,
	handler HandlerFunc,
) (Outcome, error) {
	for attempt := 1; ; attempt++ {
		outcome, err := handler(ctx, event)
		if err == nil || !apperrors.Is(err, apperrors.ErrConcurrencyConflict) {
			return outcome, err
		}

		d.metrics.RecordConsume(ctx, string(msg.Type), metrics.ConsumeConflict)
		if attempt >= d.config.ConflictMaxAttempts {
			return outcome, fmt.Errorf("concurrency conflict persisted after %d attempts: %w", attempt, err)
		}

		delay := d.config.ConflictBackoff * time.Duration(attempt)
		if d.logger != nil {
			d.logger.Warn("concurrency conflict, retrying",
				slog.String("event_type", string(msg.Type)),
				slog.String("event_id", event.EventID().String()),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
		}

		select {
		case <-ctx.Done():
			return outcome, ctx.Err()
		case <-d.clock.After(delay):
		}
	}
}

func (d *Dispatcher) reject(ctx context.Context, msg messaging.Message, err error) {
	d.metrics.RecordConsume(ctx, string(msg.Type), metrics.ConsumeRejected)
	if d.logger != nil {
		d.logger.Warn("discarding event",
			slog.String("event_type", string(msg.Type)),
			slog.String("message_id", msg.ID),
			slog.Any("error", err),
		)
	}
}

// isPermanent reports errors that a redelivery cannot fix.
func isPermanent(err error) bool {
	return apperrors.Is(err, apperrors.ErrMapping) ||
		apperrors.Is(err, apperrors.ErrNotFound) ||
		apperrors.Is(err, apperrors.ErrBusinessRule) ||
		apperrors.Is(err, apperrors.ErrInvalidInput)
}

func outcomeLabel(o Outcome) string {
	if o == Duplicate {
		return metrics.ConsumeDuplicate
	}
	return metrics.ConsumeHandled
}
