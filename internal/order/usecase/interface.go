// Package usecase implements order placement behind a request-level idempotency guard and
// the status transitions driven by inventory events.
package usecase

import (
	"context"

	"github.com/google/uuid"

	idempotencyDomain "github.com/allisson/orderflow/internal/idempotency/domain"
	"github.com/allisson/orderflow/internal/order/domain"
	outboxDomain "github.com/allisson/orderflow/internal/outbox/domain"
)

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
}

// KeyRepository defines idempotency key persistence operations.
type KeyRepository interface {
	Get(ctx context.Context, key string) (*idempotencyDomain.Key, error)
	Create(ctx context.Context, k *idempotencyDomain.Key) error
}

// OutboxWriter captures the pending events of an aggregate into the outbox.
type OutboxWriter interface {
	Capture(ctx context.Context, agg outboxDomain.Aggregate) error
}

// CreateInput is a create-order command.
type CreateInput struct {
	IdempotencyKey string
	ProductID      uuid.UUID
	Quantity       int
}

// CreateResult carries the JSON response of a create-order command. For a duplicate
// request Response is the body stored by the first request, byte for byte.
type CreateResult struct {
	OrderID      uuid.UUID
	Response     []byte
	WasDuplicate bool
}

// OrderUseCase defines the order business operations.
type OrderUseCase interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	// Confirm and Cancel report changed=false when the order already had the target status.
	Confirm(ctx context.Context, orderID uuid.UUID) (bool, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (bool, error)
}
