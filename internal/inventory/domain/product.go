// Package domain defines the Product aggregate and the processed order marker.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	outboxDomain "github.com/allisson/orderflow/internal/outbox/domain"
)

// MaxProductNameLength bounds product names.
const MaxProductNameLength = 200

// Product is a catalog item with a stock level. Stock only decreases through Reserve.
// Version is the optimistic concurrency token checked on every update.
type Product struct {
	outboxDomain.EventBuffer

	ID        uuid.UUID
	Name      string
	Stock     int
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct creates a product with an initial stock.
func NewProduct(name string, stock int, now time.Time) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxProductNameLength {
		return nil, ErrInvalidProductName
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Product{
		ID:        id,
		Name:      name,
		Stock:     stock,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Reserve takes quantity units for orderID. When stock is insufficient it raises
// StockReservationFailed, leaves the stock untouched and returns false; otherwise it
// decrements the stock, raises StockReserved and returns true.
func (p *Product) Reserve(quantity int, orderID uuid.UUID, now time.Time) (bool, error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}

	now = now.UTC()
	if p.Stock < quantity {
		p.Raise(StockReservationFailed{
			OrderID:           orderID,
			ProductID:         p.ID,
			RequestedQuantity: quantity,
			AvailableStock:    p.Stock,
			OccurredAt:        now,
		})
		return false, nil
	}

	p.Stock -= quantity
	p.UpdatedAt = now
	p.Raise(StockReserved{
		OrderID:          orderID,
		ProductID:        p.ID,
		QuantityReserved: quantity,
		RemainingStock:   p.Stock,
		OccurredAt:       now,
	})
	return true, nil
}

// ProcessedOrder marks an OrderCreated event as handled, whatever its outcome.
type ProcessedOrder struct {
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProcessedAt time.Time
}

// StockReserved is raised when a reservation succeeds.
type StockReserved struct {
	OrderID          uuid.UUID `json:"orderId"`
	ProductID        uuid.UUID `json:"productId"`
	QuantityReserved int       `json:"quantityReserved"`
	RemainingStock   int       `json:"remainingStock"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// Kind implements outboxDomain.Event.
func (StockReserved) Kind() outboxDomain.Kind {
	return outboxDomain.KindStockReserved
}

// StockReservationFailed is raised when the stock cannot cover a reservation.
type StockReservationFailed struct {
	OrderID           uuid.UUID `json:"orderId"`
	ProductID         uuid.UUID `json:"productId"`
	RequestedQuantity int       `json:"requestedQuantity"`
	AvailableStock    int       `json:"availableStock"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// Kind implements outboxDomain.Event.
func (StockReservationFailed) Kind() outboxDomain.Kind {
	return outboxDomain.KindStockReservationFailed
}
