package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/inventory/domain"
	"github.com/allisson/orderflow/internal/metrics"
)

// reservationUseCaseWithMetrics decorates ReservationUseCase with metrics instrumentation.
type reservationUseCaseWithMetrics struct {
	next    ReservationUseCase
	metrics metrics.BusinessMetrics
}

// NewReservationUseCaseWithMetrics wraps a ReservationUseCase with metrics recording.
func NewReservationUseCaseWithMetrics(useCase ReservationUseCase, m metrics.BusinessMetrics) ReservationUseCase {
	return &reservationUseCaseWithMetrics{next: useCase, metrics: m}
}

// Reserve records the reservation outcome: reserved, out_of_stock, duplicate or error.
func (r *reservationUseCaseWithMetrics) Reserve(ctx context.Context, input ReserveInput) (ReserveResult, error) {
	start := time.Now()
	result, err := r.next.Reserve(ctx, input)

	status := "reserved"
	switch {
	case err != nil:
		status = "error"
	case result.Duplicate:
		status = "duplicate"
	case !result.Reserved:
		status = "out_of_stock"
	}

	r.metrics.RecordOperation(ctx, "inventory", "stock_reserve", status)
	r.metrics.RecordDuration(ctx, "inventory", "stock_reserve", time.Since(start), status)
	return result, err
}

// productUseCaseWithMetrics decorates ProductUseCase with metrics instrumentation.
type productUseCaseWithMetrics struct {
	next    ProductUseCase
	metrics metrics.BusinessMetrics
}

// NewProductUseCaseWithMetrics wraps a ProductUseCase with metrics recording.
func NewProductUseCaseWithMetrics(useCase ProductUseCase, m metrics.BusinessMetrics) ProductUseCase {
	return &productUseCaseWithMetrics{next: useCase, metrics: m}
}

func (p *productUseCaseWithMetrics) Create(ctx context.Context, name string, stock int) (*domain.Product, error) {
	start := time.Now()
	product, err := p.next.Create(ctx, name, stock)
	p.record(ctx, "product_create", start, err)
	return product, err
}

func (p *productUseCaseWithMetrics) Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	start := time.Now()
	product, err := p.next.Get(ctx, productID)
	p.record(ctx, "product_get", start, err)
	return product, err
}

func (p *productUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.Product, int, error) {
	start := time.Now()
	products, total, err := p.next.List(ctx, offset, limit)
	p.record(ctx, "product_list", start, err)
	return products, total, err
}

func (p *productUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordOperation(ctx, "inventory", operation, status)
	p.metrics.RecordDuration(ctx, "inventory", operation, time.Since(start), status)
}
