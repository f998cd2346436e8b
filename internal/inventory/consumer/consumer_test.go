package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/allisson/orderflow/internal/consumer"
	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/inventory/domain"
	inventoryUseCase "github.com/allisson/orderflow/internal/inventory/usecase"
	"github.com/allisson/orderflow/internal/inventory/usecase/mocks"
)

func TestInventoryConsumer_HandleOrderCreated(t *testing.T) {
	ctx := context.Background()
	event := events.OrderCreated{
		Envelope:  events.NewEnvelope(time.Now()),
		OrderID:   uuid.Must(uuid.NewV7()),
		ProductID: uuid.Must(uuid.NewV7()),
		Quantity:  5,
	}
	input := inventoryUseCase.ReserveInput{OrderID: event.OrderID, ProductID: event.ProductID, Quantity: 5}

	tests := []struct {
		name    string
		result  inventoryUseCase.ReserveResult
		err     error
		outcome consumer.Outcome
	}{
		{"Reserved", inventoryUseCase.ReserveResult{Reserved: true}, nil, consumer.Handled},
		{"OutOfStock", inventoryUseCase.ReserveResult{}, nil, consumer.Handled},
		{"AlreadyProcessed", inventoryUseCase.ReserveResult{Duplicate: true}, nil, consumer.Duplicate},
		{"Conflict", inventoryUseCase.ReserveResult{}, domain.ErrProductVersionConflict, consumer.Handled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mocks.MockReservationUseCase{}
			uc.On("Reserve", ctx, input).Return(tt.result, tt.err).Once()

			outcome, err := NewInventoryConsumer(uc).HandleOrderCreated(ctx, event)

			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.outcome, outcome)
			uc.AssertExpectations(t)
		})
	}
}

func TestInventoryConsumer_Register(t *testing.T) {
	d := consumer.NewDispatcher(consumer.Config{}, nil, nil, nil, nil)
	NewInventoryConsumer(&mocks.MockReservationUseCase{}).Register(d)

	assert.Equal(t, []events.Type{events.OrderCreatedType}, d.Types())
}
