// Package consumer applies inventory outcomes to orders.
package consumer

import (
	"context"
	"log/slog"

	"github.com/allisson/orderflow/internal/consumer"
	"github.com/allisson/orderflow/internal/events"
	orderUseCase "github.com/allisson/orderflow/internal/order/usecase"
)

// OrderConsumer confirms orders whose stock was reserved and cancels the rest.
type OrderConsumer struct {
	orderUseCase orderUseCase.OrderUseCase
	logger       *slog.Logger
}

// NewOrderConsumer creates a new OrderConsumer.
func NewOrderConsumer(orderUseCase orderUseCase.OrderUseCase, logger *slog.Logger) *OrderConsumer {
	return &OrderConsumer{orderUseCase: orderUseCase, logger: logger}
}

// Register binds the order handlers to the dispatcher.
func (c *OrderConsumer) Register(d *consumer.Dispatcher) {
	d.Register(events.InventoryUpdatedType, c.HandleInventoryUpdated)
	d.Register(events.OutOfStockType, c.HandleOutOfStock)
}

// HandleInventoryUpdated confirms the order.
func (c *OrderConsumer) HandleInventoryUpdated(ctx context.Context, event events.Event) (consumer.Outcome, error) {
	e := event.(events.InventoryUpdated)

	changed, err := c.orderUseCase.Confirm(ctx, e.OrderID)
	if err != nil {
		return consumer.Handled, err
	}
	return c.outcome(changed, "order confirmed", e.OrderID.String()), nil
}

// HandleOutOfStock cancels the order.
func (c *OrderConsumer) HandleOutOfStock(ctx context.Context, event events.Event) (consumer.Outcome, error) {
	e := event.(events.OutOfStock)

	changed, err := c.orderUseCase.Cancel(ctx, e.OrderID)
	if err != nil {
		return consumer.Handled, err
	}
	return c.outcome(changed, "order cancelled", e.OrderID.String()), nil
}

func (c *OrderConsumer) outcome(changed bool, msg, orderID string) consumer.Outcome {
	if !changed {
		return consumer.Duplicate
	}
	if c.logger != nil {
		c.logger.Info(msg, slog.String("order_id", orderID))
	}
	return consumer.Handled
}
