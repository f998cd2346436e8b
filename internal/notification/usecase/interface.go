// Package usecase sends customer notifications at most once per order and type and
// retries failed deliveries.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/notification/domain"
)

// NotificationRepository defines notification persistence operations.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	Update(ctx context.Context, n *domain.Notification) error
	ExistsForOrder(ctx context.Context, orderID uuid.UUID, notificationType domain.Type) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error)
	ListRetryable(ctx context.Context, maxRetries int, staleBefore time.Time, limit int) ([]*domain.Notification, error)
}

// Sender delivers a notification to the customer.
type Sender interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// SendInput is a notification request derived from an integration event.
type SendInput struct {
	OrderID uuid.UUID
	Type    domain.Type
	Message string
}

// SendResult describes a completed send attempt.
type SendResult struct {
	NotificationID uuid.UUID
	// Status is the delivery status after the attempt. Empty for duplicates.
	Status domain.Status
	// WasDuplicate is true when a notification of this type already existed for the order.
	WasDuplicate bool
}

// RetryConfig holds failed notification sweep configuration.
type RetryConfig struct {
	Interval   time.Duration
	MaxRetries int
	BatchSize  int
	// StaleAfter is how long a Pending claim may go without a recorded outcome before the
	// sweep delivers it again. It must exceed the longest sender call.
	StaleAfter time.Duration
}

// RetrySummary counts the outcomes of one sweep.
type RetrySummary struct {
	Attempted int
	Sent      int
	Failed    int
}

// NotificationUseCase sends and lists notifications.
type NotificationUseCase interface {
	Send(ctx context.Context, input SendInput) (SendResult, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error)
}

// RetryUseCase re-attempts failed deliveries.
type RetryUseCase interface {
	RetryFailed(ctx context.Context) (RetrySummary, error)
	Start(ctx context.Context) error
}
