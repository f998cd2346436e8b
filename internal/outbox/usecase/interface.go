// Package usecase implements the outbox writer, the outbox publisher and the mapping from
// outbox kinds to integration contracts.
package usecase

import (
	"context"

	"github.com/allisson/orderflow/internal/outbox/domain"
)

// MessageRepository defines outbox message persistence operations.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetPending(ctx context.Context, limit int, maxRetries int) ([]*domain.Message, error)
	Update(ctx context.Context, msg *domain.Message) error
}

// UseCase defines the outbox publisher operations.
type UseCase interface {
	Start(ctx context.Context) error
	PublishPending(ctx context.Context) error
}
