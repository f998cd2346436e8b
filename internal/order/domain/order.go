// Package domain defines the Order aggregate and its status machine.
package domain

import (
	"time"

	"github.com/google/uuid"

	outboxDomain "github.com/allisson/orderflow/internal/outbox/domain"
)

// MaxQuantity is the largest quantity a single order may request.
const MaxQuantity = 1000

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

// Order is the aggregate root of the orders service.
type Order struct {
	outboxDomain.EventBuffer

	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder creates a Pending order and raises OrderCreated.
func NewOrder(productID uuid.UUID, quantity int, now time.Time) (*Order, error) {
	if productID == uuid.Nil {
		return nil, ErrInvalidProductID
	}
	if quantity <= 0 || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	o := &Order{
		ID:        id,
		ProductID: productID,
		Quantity:  quantity,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Raise(OrderCreated{
		OrderID:    o.ID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		OccurredAt: now,
	})
	return o, nil
}

// Confirm moves a Pending order to Confirmed. Confirming an already Confirmed order
// reports changed=false so redeliveries are harmless.
func (o *Order) Confirm(now time.Time) (bool, error) {
	switch o.Status {
	case StatusPending:
		o.Status = StatusConfirmed
		o.UpdatedAt = now.UTC()
		return true, nil
	case StatusConfirmed:
		return false, nil
	case StatusCancelled:
		return false, ErrOrderAlreadyCancelled
	default:
		return false, ErrInvalidTransition
	}
}

// Cancel moves a Pending order to Cancelled. A Confirmed order can no longer be
// cancelled; cancelling a Cancelled order reports changed=false.
func (o *Order) Cancel(now time.Time) (bool, error) {
	switch o.Status {
	case StatusPending:
		o.Status = StatusCancelled
		o.UpdatedAt = now.UTC()
		return true, nil
	case StatusCancelled:
		return false, nil
	case StatusConfirmed:
		return false, ErrOrderAlreadyConfirmed
	default:
		return false, ErrInvalidTransition
	}
}

// Snapshot is the serializable view of an order. It is what the create endpoint returns
// and what the idempotency key caches.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot returns the current view of the order.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:        o.ID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// OrderCreated is raised when an order is placed.
type OrderCreated struct {
	OrderID    uuid.UUID `json:"orderId"`
	ProductID  uuid.UUID `json:"productId"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Kind implements outboxDomain.Event.
func (OrderCreated) Kind() outboxDomain.Kind {
	return outboxDomain.KindOrderCreated
}
