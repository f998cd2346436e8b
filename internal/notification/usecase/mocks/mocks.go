// Package mocks provides testify mocks of the notification use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/orderflow/internal/notification/domain"
	"github.com/allisson/orderflow/internal/notification/usecase"
)

// MockNotificationUseCase is a mock implementation of usecase.NotificationUseCase
type MockNotificationUseCase struct {
	mock.Mock
}

var _ usecase.NotificationUseCase = (*MockNotificationUseCase)(nil)

func (m *MockNotificationUseCase) Send(ctx context.Context, input usecase.SendInput) (usecase.SendResult, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(usecase.SendResult), args.Error(1)
}

func (m *MockNotificationUseCase) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

// MockRetryUseCase is a mock implementation of usecase.RetryUseCase
type MockRetryUseCase struct {
	mock.Mock
}

var _ usecase.RetryUseCase = (*MockRetryUseCase)(nil)

func (m *MockRetryUseCase) RetryFailed(ctx context.Context) (usecase.RetrySummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.RetrySummary), args.Error(1)
}

func (m *MockRetryUseCase) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
