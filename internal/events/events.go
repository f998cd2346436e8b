// Package events defines the integration event contracts exchanged between the orders,
// inventory and notifications services. Contracts are the wire shape only: every event
// carries its own id and timestamp, independent of the domain event that produced it.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/orderflow/internal/errors"
)

// Type is the routing name of an integration contract on the bus.
type Type string

const (
	OrderCreatedType     Type = "OrderCreated"
	InventoryUpdatedType Type = "InventoryUpdated"
	OutOfStockType       Type = "OutOfStock"
)

// AllTypes returns every contract type known to this build.
func AllTypes() []Type {
	return []Type{OrderCreatedType, InventoryUpdatedType, OutOfStockType}
}

// Event is implemented only by the contracts in this package.
type Event interface {
	EventType() Type
	EventID() uuid.UUID
	isEvent()
}

// Envelope holds the identity fields shared by every contract.
type Envelope struct {
	ID         uuid.UUID `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewEnvelope returns an envelope with a fresh UUIDv7 id.
func NewEnvelope(occurredAt time.Time) Envelope {
	return Envelope{ID: uuid.Must(uuid.NewV7()), OccurredAt: occurredAt.UTC()}
}

// EventID returns the contract event id.
func (e Envelope) EventID() uuid.UUID { return e.ID }

// OrderCreated is published by orders when a new order is accepted.
type OrderCreated struct {
	Envelope
	OrderID   uuid.UUID `json:"orderId"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

func (OrderCreated) EventType() Type { return OrderCreatedType }
func (OrderCreated) isEvent()        {}

// InventoryUpdated is published by inventory after stock was reserved for an order.
type InventoryUpdated struct {
	Envelope
	OrderID          uuid.UUID `json:"orderId"`
	ProductID        uuid.UUID `json:"productId"`
	QuantityReserved int       `json:"quantityReserved"`
	RemainingStock   int       `json:"remainingStock"`
}

func (InventoryUpdated) EventType() Type { return InventoryUpdatedType }
func (InventoryUpdated) isEvent()        {}

// OutOfStock is published by inventory when a reservation could not be satisfied.
type OutOfStock struct {
	Envelope
	OrderID           uuid.UUID `json:"orderId"`
	ProductID         uuid.UUID `json:"productId"`
	RequestedQuantity int       `json:"requestedQuantity"`
	AvailableStock    int       `json:"availableStock"`
}

func (OutOfStock) EventType() Type { return OutOfStockType }
func (OutOfStock) isEvent()        {}

// Encode serializes an event to its JSON wire form.
func Encode(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMapping, fmt.Sprintf("encode %s: %v", e.EventType(), err))
	}
	return body, nil
}

// Decode parses body as the contract named by t. An unknown type or a malformed body is
// a mapping failure and must not be retried.
func Decode(t Type, body []byte) (Event, error) {
	var (
		event Event
		err   error
	)

	switch t {
	case OrderCreatedType:
		var e OrderCreated
		err = json.Unmarshal(body, &e)
		event = e
	case InventoryUpdatedType:
		var e InventoryUpdated
		err = json.Unmarshal(body, &e)
		event = e
	case OutOfStockType:
		var e OutOfStock
		err = json.Unmarshal(body, &e)
		event = e
	default:
		return nil, apperrors.Wrap(apperrors.ErrMapping, fmt.Sprintf("unknown event type %q", t))
	}

	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMapping, fmt.Sprintf("decode %s: %v", t, err))
	}
	return event, nil
}
