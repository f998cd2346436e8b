// Package consumer reserves stock for newly created orders.
package consumer

import (
	"context"

	"github.com/allisson/orderflow/internal/consumer"
	"github.com/allisson/orderflow/internal/events"
	inventoryUseCase "github.com/allisson/orderflow/internal/inventory/usecase"
)

// InventoryConsumer handles OrderCreated events.
type InventoryConsumer struct {
	reservationUseCase inventoryUseCase.ReservationUseCase
}

// NewInventoryConsumer creates a new InventoryConsumer.
func NewInventoryConsumer(reservationUseCase inventoryUseCase.ReservationUseCase) *InventoryConsumer {
	return &InventoryConsumer{reservationUseCase: reservationUseCase}
}

// Register binds the inventory handlers to the dispatcher.
func (c *InventoryConsumer) Register(d *consumer.Dispatcher) {
	d.Register(events.OrderCreatedType, c.HandleOrderCreated)
}

// HandleOrderCreated reserves the ordered quantity.
func (c *InventoryConsumer) HandleOrderCreated(ctx context.Context, event events.Event) (consumer.Outcome, error) {
	e := event.(events.OrderCreated)

	result, err := c.reservationUseCase.Reserve(ctx, inventoryUseCase.ReserveInput{
		OrderID:   e.OrderID,
		ProductID: e.ProductID,
		Quantity:  e.Quantity,
	})
	if err != nil {
		return consumer.Handled, err
	}
	if result.Duplicate {
		return consumer.Duplicate, nil
	}
	return consumer.Handled, nil
}
