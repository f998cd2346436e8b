package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/allisson/orderflow/internal/metrics"
	"github.com/allisson/orderflow/internal/notification/domain"
)

// notificationUseCase implements the NotificationUseCase interface.
type notificationUseCase struct {
	repo    NotificationRepository
	sender  Sender
	clock   clockwork.Clock
	metrics metrics.ReliabilityMetrics
	logger  *slog.Logger
}

// NewNotificationUseCase creates a new notification use case instance.
func NewNotificationUseCase(
	repo NotificationRepository,
	sender Sender,
	clock clockwork.Clock,
	reliabilityMetrics metrics.ReliabilityMetrics,
	logger *slog.Logger,
) NotificationUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if reliabilityMetrics == nil {
		reliabilityMetrics = metrics.NewNoOpReliabilityMetrics()
	}
	return &notificationUseCase{
		repo:    repo,
		sender:  sender,
		clock:   clock,
		metrics: reliabilityMetrics,
		logger:  logger,
	}
}

// Send claims the (order, type) slot by inserting a Pending row, then delivers it and
// records Sent or Failed. A delivery failure is not an error: the row stays Failed for the
// retry sweep. When the outcome cannot be stored the claim stays Pending and the sweep
// delivers it once it is older than RetryConfig.StaleAfter. Only the insert decides
// duplicates; the pre-check just avoids building a message that will be rejected.
func (uc *notificationUseCase) Send(ctx context.Context, input SendInput) (SendResult, error) {
	exists, err := uc.repo.ExistsForOrder(ctx, input.OrderID, input.Type)
	if err != nil {
		return SendResult{}, err
	}
	if exists {
		return SendResult{WasDuplicate: true}, nil
	}

	n, err := domain.NewNotification(input.OrderID, input.Type, input.Message, uc.clock.Now())
	if err != nil {
		return SendResult{}, err
	}

	if err := uc.repo.Create(ctx, n); err != nil {
		if errors.Is(err, domain.ErrNotificationDuplicate) {
			return SendResult{WasDuplicate: true}, nil
		}
		return SendResult{}, err
	}

	if err := deliver(ctx, uc.repo, uc.sender, uc.clock, n); err != nil {
		return SendResult{}, err
	}
	uc.metrics.RecordNotificationDelivery(ctx, string(n.Type), string(n.Status))

	if uc.logger != nil {
		uc.logger.Info("notification processed",
			slog.String("notification_id", n.ID.String()),
			slog.String("order_id", n.OrderID.String()),
			slog.String("type", string(n.Type)),
			slog.String("status", string(n.Status)),
		)
	}

	return SendResult{NotificationID: n.ID, Status: n.Status}, nil
}

// ListByOrder returns the notifications of an order.
func (uc *notificationUseCase) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error) {
	if orderID == uuid.Nil {
		return nil, domain.ErrInvalidOrderID
	}
	return uc.repo.ListByOrder(ctx, orderID)
}

// deliver sends n and persists the outcome. Only repository errors are returned.
func deliver(
	ctx context.Context,
	repo NotificationRepository,
	sender Sender,
	clock clockwork.Clock,
	n *domain.Notification,
) error {
	if sendErr := sender.Send(ctx, n); sendErr != nil {
		if err := n.MarkFailed(sendErr.Error(), clock.Now()); err != nil {
			return err
		}
	} else if err := n.MarkSent(clock.Now()); err != nil {
		return err
	}
	return repo.Update(ctx, n)
}
