package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outbox publish outcomes.
const (
	OutboxPublished = "published"
	OutboxRetrying  = "retrying"
	OutboxDead      = "dead"
)

// Consumption outcomes.
const (
	ConsumeHandled   = "handled"
	ConsumeDuplicate = "duplicate"
	ConsumeRejected  = "rejected"
	ConsumeConflict  = "conflict_retry"
	ConsumeFailed    = "failed"
)

// ReliabilityMetrics tracks the event pipeline: outbox rows leaving the service,
// integration events arriving at consumers and notification delivery attempts.
type ReliabilityMetrics interface {
	RecordOutboxPublish(ctx context.Context, kind, outcome string)
	RecordConsume(ctx context.Context, eventType, outcome string)
	RecordNotificationDelivery(ctx context.Context, notificationType, status string)
}

type reliabilityMetrics struct {
	outboxCounter       metric.Int64Counter
	consumeCounter      metric.Int64Counter
	notificationCounter metric.Int64Counter
}

// NewReliabilityMetrics creates a ReliabilityMetrics implementation using the provided meter provider.
func NewReliabilityMetrics(meterProvider metric.MeterProvider, namespace string) (ReliabilityMetrics, error) {
	meter := meterProvider.Meter(namespace)

	outboxCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_outbox_messages_total", namespace),
		metric.WithDescription("Outbox messages processed by the publisher, by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox counter: %w", err)
	}

	consumeCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_events_consumed_total", namespace),
		metric.WithDescription("Integration events consumed, by outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consume counter: %w", err)
	}

	notificationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_notification_deliveries_total", namespace),
		metric.WithDescription("Notification delivery attempts, by resulting status"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification counter: %w", err)
	}

	return &reliabilityMetrics{
		outboxCounter:       outboxCounter,
		consumeCounter:      consumeCounter,
		notificationCounter: notificationCounter,
	}, nil
}

func (r *reliabilityMetrics) RecordOutboxPublish(ctx context.Context, kind, outcome string) {
	r.outboxCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func (r *reliabilityMetrics) RecordConsume(ctx context.Context, eventType, outcome string) {
	r.consumeCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	))
}

func (r *reliabilityMetrics) RecordNotificationDelivery(ctx context.Context, notificationType, status string) {
	r.notificationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", notificationType),
		attribute.String("status", status),
	))
}

// NoOpReliabilityMetrics is used when metrics are disabled.
type NoOpReliabilityMetrics struct{}

// NewNoOpReliabilityMetrics creates a no-op ReliabilityMetrics implementation.
func NewNoOpReliabilityMetrics() ReliabilityMetrics {
	return &NoOpReliabilityMetrics{}
}

func (n *NoOpReliabilityMetrics) RecordOutboxPublish(ctx context.Context, kind, outcome string) {}

func (n *NoOpReliabilityMetrics) RecordConsume(ctx context.Context, eventType, outcome string) {}

func (n *NoOpReliabilityMetrics) RecordNotificationDelivery(
	ctx context.Context,
	notificationType, status string,
) {
}
