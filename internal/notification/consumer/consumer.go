// Package consumer turns inventory outcomes into customer notifications.
package consumer

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/consumer"
	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/notification/domain"
	notificationUseCase "github.com/allisson/orderflow/internal/notification/usecase"
)

// NotificationConsumer sends OrderConfirmed and OrderRejected notifications.
type NotificationConsumer struct {
	notificationUseCase notificationUseCase.NotificationUseCase
}

// NewNotificationConsumer creates a new NotificationConsumer.
func NewNotificationConsumer(notificationUseCase notificationUseCase.NotificationUseCase) *NotificationConsumer {
	return &NotificationConsumer{notificationUseCase: notificationUseCase}
}

// Register binds the notification handlers to the dispatcher.
func (c *NotificationConsumer) Register(d *consumer.Dispatcher) {
	d.Register(events.InventoryUpdatedType, c.HandleInventoryUpdated)
	d.Register(events.OutOfStockType, c.HandleOutOfStock)
}

// HandleInventoryUpdated sends the OrderConfirmed notification.
func (c *NotificationConsumer) HandleInventoryUpdated(ctx context.Context, event events.Event) (consumer.Outcome, error) {
	e := event.(events.InventoryUpdated)
	return c.send(ctx, e.OrderID, domain.TypeOrderConfirmed,
		domain.ConfirmedMessage(e.OrderID, e.ProductID, e.QuantityReserved, e.RemainingStock))
}

// HandleOutOfStock sends the OrderRejected notification.
func (c *NotificationConsumer) HandleOutOfStock(ctx context.Context, event events.Event) (consumer.Outcome, error) {
	e := event.(events.OutOfStock)
	return c.send(ctx, e.OrderID, domain.TypeOrderRejected,
		domain.RejectedMessage(e.OrderID, e.ProductID, e.RequestedQuantity, e.AvailableStock))
}

func (c *NotificationConsumer) send(
	ctx context.Context,
	orderID uuid.UUID,
	notificationType domain.Type,
	message string,
) (consumer.Outcome, error) {
	result, err := c.notificationUseCase.Send(ctx, notificationUseCase.SendInput{
		OrderID: orderID,
		Type:    notificationType,
		Message: message,
	})
	if err != nil {
		return consumer.Handled, err
	}
	if result.WasDuplicate {
		return consumer.Duplicate, nil
	}
	return consumer.Handled, nil
}
