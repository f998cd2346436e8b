package consumer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/orderflow/internal/consumer"
	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/notification/domain"
	"github.com/allisson/orderflow/internal/notification/usecase"
	"github.com/allisson/orderflow/internal/notification/usecase/mocks"
)

func TestNotificationConsumer_HandleInventoryUpdated(t *testing.T) {
	ctx := context.Background()
	event := events.InventoryUpdated{
		Envelope:         events.NewEnvelope(time.Now()),
		OrderID:          uuid.Must(uuid.NewV7()),
		ProductID:        uuid.Must(uuid.NewV7()),
		QuantityReserved: 5,
		RemainingStock:   5,
	}
	expected := usecase.SendInput{
		OrderID: event.OrderID,
		Type:    domain.TypeOrderConfirmed,
		Message: domain.ConfirmedMessage(event.OrderID, event.ProductID, 5, 5),
	}

	tests := []struct {
		name   string
		result usecase.SendResult
		err    error
		want   consumer.Outcome
	}{
		{"Sent", usecase.SendResult{Status: domain.StatusSent}, nil, consumer.Handled},
		{"DeliveryFailed", usecase.SendResult{Status: domain.StatusFailed}, nil, consumer.Handled},
		{"Duplicate", usecase.SendResult{WasDuplicate: true}, nil, consumer.Duplicate},
		{"Error", usecase.SendResult{}, assert.AnError, consumer.Handled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mocks.MockNotificationUseCase{}
			uc.On("Send", ctx, expected).Return(tt.result, tt.err).Once()

			outcome, err := NewNotificationConsumer(uc).HandleInventoryUpdated(ctx, event)

			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.want, outcome)
			uc.AssertExpectations(t)
		})
	}
}

func TestNotificationConsumer_HandleOutOfStock(t *testing.T) {
	ctx := context.Background()
	event := events.OutOfStock{
		Envelope:          events.NewEnvelope(time.Now()),
		OrderID:           uuid.Must(uuid.NewV7()),
		ProductID:         uuid.Must(uuid.NewV7()),
		RequestedQuantity: 100,
		AvailableStock:    3,
	}

	uc := &mocks.MockNotificationUseCase{}
	uc.On("Send", ctx, mock.MatchedBy(func(in usecase.SendInput) bool {
		return in.Type == domain.TypeOrderRejected &&
			in.OrderID == event.OrderID &&
			strings.Contains(in.Message, "Requested: 100, Available: 3")
	})).Return(usecase.SendResult{Status: domain.StatusSent}, nil).Once()

	outcome, err := NewNotificationConsumer(uc).HandleOutOfStock(ctx, event)

	assert.NoError(t, err)
	assert.Equal(t, consumer.Handled, outcome)
	uc.AssertExpectations(t)
}
