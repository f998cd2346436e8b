// Package usecase implements the product catalog and stock reservation behind the
// processed order guard.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/inventory/domain"
	outboxDomain "github.com/allisson/orderflow/internal/outbox/domain"
)

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Product, int, error)
	Update(ctx context.Context, product *domain.Product) error
}

// ProcessedOrderRepository defines processed order marker persistence operations.
type ProcessedOrderRepository interface {
	Exists(ctx context.Context, orderID uuid.UUID) (bool, error)
	Create(ctx context.Context, marker *domain.ProcessedOrder) error
}

// OutboxWriter captures the pending events of an aggregate into the outbox.
type OutboxWriter interface {
	Capture(ctx context.Context, agg outboxDomain.Aggregate) error
}

// ReserveInput is a reservation request derived from an OrderCreated event.
type ReserveInput struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// ReserveResult describes a completed reservation attempt.
type ReserveResult struct {
	// Duplicate is true when the order had already been processed; nothing was changed.
	Duplicate bool
	// Reserved is true when stock was taken, false when it was insufficient.
	Reserved bool
}

// ReservationUseCase reserves stock for orders.
type ReservationUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (ReserveResult, error)
}

// ProductUseCase manages the product catalog.
type ProductUseCase interface {
	Create(ctx context.Context, name string, stock int) (*domain.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Product, int, error)
}
