package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/metrics"
	"github.com/allisson/orderflow/internal/order/domain"
)

// orderUseCaseWithMetrics decorates OrderUseCase with metrics instrumentation.
type orderUseCaseWithMetrics struct {
	next    OrderUseCase
	metrics metrics.BusinessMetrics
}

// NewOrderUseCaseWithMetrics wraps an OrderUseCase with metrics recording.
func NewOrderUseCaseWithMetrics(useCase OrderUseCase, m metrics.BusinessMetrics) OrderUseCase {
	return &orderUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for order creation. Duplicate replays are counted separately.
func (o *orderUseCaseWithMetrics) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	start := time.Now()
	result, err := o.next.Create(ctx, input)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case result.WasDuplicate:
		status = "duplicate"
	}

	o.record(ctx, "order_create", start, status)
	return result, err
}

// Get records metrics for order retrieval.
func (o *orderUseCaseWithMetrics) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	start := time.Now()
	order, err := o.next.Get(ctx, orderID)
	o.record(ctx, "order_get", start, statusOf(err))
	return order, err
}

// Confirm records metrics for order confirmation.
func (o *orderUseCaseWithMetrics) Confirm(ctx context.Context, orderID uuid.UUID) (bool, error) {
	start := time.Now()
	changed, err := o.next.Confirm(ctx, orderID)
	o.record(ctx, "order_confirm", start, statusOf(err))
	return changed, err
}

// Cancel records metrics for order cancellation.
func (o *orderUseCaseWithMetrics) Cancel(ctx context.Context, orderID uuid.UUID) (bool, error) {
	start := time.Now()
	changed, err := o.next.Cancel(ctx, orderID)
	o.record(ctx, "order_cancel", start, statusOf(err))
	return changed, err
}

func (o *orderUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	o.metrics.RecordOperation(ctx, "orders", operation, status)
	o.metrics.RecordDuration(ctx, "orders", operation, time.Since(start), status)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
