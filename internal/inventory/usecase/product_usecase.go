package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/allisson/orderflow/internal/inventory/domain"
)

// productUseCase implements the ProductUseCase interface.
type productUseCase struct {
	productRepo ProductRepository
	clock       clockwork.Clock
}

// NewProductUseCase creates a new product use case instance.
func NewProductUseCase(productRepo ProductRepository, clock clockwork.Clock) ProductUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &productUseCase{productRepo: productRepo, clock: clock}
}

// Create adds a product to the catalog.
func (p *productUseCase) Create(ctx context.Context, name string, stock int) (*domain.Product, error) {
	product, err := domain.NewProduct(name, stock, p.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := p.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Get retrieves a product by id.
func (p *productUseCase) Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	return p.productRepo.Get(ctx, productID)
}

// List retrieves a page of products and the total number of products.
func (p *productUseCase) List(ctx context.Context, offset, limit int) ([]*domain.Product, int, error) {
	return p.productRepo.List(ctx, offset, limit)
}
