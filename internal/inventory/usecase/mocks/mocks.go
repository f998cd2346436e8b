// Package mocks provides testify mocks of the inventory use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/orderflow/internal/inventory/domain"
	"github.com/allisson/orderflow/internal/inventory/usecase"
)

// MockProductUseCase is a mock implementation of usecase.ProductUseCase
type MockProductUseCase struct {
	mock.Mock
}

var _ usecase.ProductUseCase = (*MockProductUseCase)(nil)

func (m *MockProductUseCase) Create(ctx context.Context, name string, stock int) (*domain.Product, error) {
	args := m.Called(ctx, name, stock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductUseCase) Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductUseCase) List(ctx context.Context, offset, limit int) ([]*domain.Product, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Int(1), args.Error(2)
}

// MockReservationUseCase is a mock implementation of usecase.ReservationUseCase
type MockReservationUseCase struct {
	mock.Mock
}

var _ usecase.ReservationUseCase = (*MockReservationUseCase)(nil)

func (m *MockReservationUseCase) Reserve(
	ctx context.Context,
	input usecase.ReserveInput,
) (usecase.ReserveResult, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(usecase.ReserveResult), args.Error(1)
}
