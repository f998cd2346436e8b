// Package mocks provides testify mocks of the order use cases for handler and consumer tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/orderflow/internal/order/domain"
	"github.com/allisson/orderflow/internal/order/usecase"
)

// MockOrderUseCase is a mock implementation of usecase.OrderUseCase
type MockOrderUseCase struct {
	mock.Mock
}

var _ usecase.OrderUseCase = (*MockOrderUseCase)(nil)

func (m *MockOrderUseCase) Create(ctx context.Context, input usecase.CreateInput) (*usecase.CreateResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CreateResult), args.Error(1)
}

func (m *MockOrderUseCase) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderUseCase) Confirm(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderUseCase) Cancel(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}
