package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/metrics"
	"github.com/allisson/orderflow/internal/notification/domain"
)

// notificationUseCaseWithMetrics decorates NotificationUseCase with metrics instrumentation.
type notificationUseCaseWithMetrics struct {
	next    NotificationUseCase
	metrics metrics.BusinessMetrics
}

// NewNotificationUseCaseWithMetrics wraps a NotificationUseCase with metrics recording.
func NewNotificationUseCaseWithMetrics(useCase NotificationUseCase, m metrics.BusinessMetrics) NotificationUseCase {
	return &notificationUseCaseWithMetrics{next: useCase, metrics: m}
}

// Send records the attempt as sent, failed, duplicate or error.
func (n *notificationUseCaseWithMetrics) Send(ctx context.Context, input SendInput) (SendResult, error) {
	start := time.Now()
	result, err := n.next.Send(ctx, input)

	status := "error"
	switch {
	case err != nil:
	case result.WasDuplicate:
		status = "duplicate"
	case result.Status == domain.StatusSent:
		status = "sent"
	default:
		status = "failed"
	}

	n.metrics.RecordOperation(ctx, "notifications", "notification_send", status)
	n.metrics.RecordDuration(ctx, "notifications", "notification_send", time.Since(start), status)
	return result, err
}

func (n *notificationUseCaseWithMetrics) ListByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*domain.Notification, error) {
	start := time.Now()
	notifications, err := n.next.ListByOrder(ctx, orderID)

	status := "success"
	if err != nil {
		status = "error"
	}
	n.metrics.RecordOperation(ctx, "notifications", "notification_list", status)
	n.metrics.RecordDuration(ctx, "notifications", "notification_list", time.Since(start), status)
	return notifications, err
}
