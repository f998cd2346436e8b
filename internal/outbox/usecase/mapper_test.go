package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/events"
	inventoryDomain "github.com/allisson/orderflow/internal/inventory/domain"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	"github.com/allisson/orderflow/internal/outbox/domain"
)

func sampleEvent(kind domain.Kind, occurredAt time.Time) domain.Event {
	orderID := uuid.MustParse("0190a0f4-0000-7000-8000-000000000001")
	productID := uuid.MustParse("0190a0f4-0000-7000-8000-000000000002")

	switch kind {
	case domain.KindOrderCreated:
		return orderDomain.OrderCreated{OrderID: orderID, ProductID: productID, Quantity: 5, OccurredAt: occurredAt}
	case domain.KindStockReserved:
		return inventoryDomain.StockReserved{
			OrderID: orderID, ProductID: productID, QuantityReserved: 5, RemainingStock: 5, OccurredAt: occurredAt,
		}
	case domain.KindStockReservationFailed:
		return inventoryDomain.StockReservationFailed{
			OrderID: orderID, ProductID: productID, RequestedQuantity: 100, AvailableStock: 3, OccurredAt: occurredAt,
		}
	}
	return nil
}

func TestMap_AllKinds(t *testing.T) {
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expectedTypes := map[domain.Kind]events.Type{
		domain.KindOrderCreated:           events.OrderCreatedType,
		domain.KindStockReserved:          events.InventoryUpdatedType,
		domain.KindStockReservationFailed: events.OutOfStockType,
	}

	for _, kind := range domain.AllKinds() {
		t.Run(string(kind), func(t *testing.T) {
			event := sampleEvent(kind, occurredAt)
			require.NotNil(t, event, "no sample event for kind %s", kind)

			msg, err := domain.NewMessage(event, occurredAt)
			require.NoError(t, err)

			contract, err := Map(msg)
			require.NoError(t, err)
			assert.Equal(t, expectedTypes[kind], contract.EventType())
			assert.Equal(t, msg.ID, contract.EventID())
		})
	}
}

func TestMap_Fields(t *testing.T) {
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	msg, err := domain.NewMessage(sampleEvent(domain.KindStockReservationFailed, occurredAt), occurredAt)
	require.NoError(t, err)

	contract, err := Map(msg)
	require.NoError(t, err)

	outOfStock, ok := contract.(events.OutOfStock)
	require.True(t, ok)
	assert.Equal(t, 100, outOfStock.RequestedQuantity)
	assert.Equal(t, 3, outOfStock.AvailableStock)
	assert.Equal(t, occurredAt, outOfStock.OccurredAt)
}

func TestMap_Failures(t *testing.T) {
	tests := []struct {
		name string
		msg  *domain.Message
	}{
		{"UnknownKind", &domain.Message{Kind: "payment.captured", Content: `{}`}},
		{"MalformedJSON", &domain.Message{Kind: domain.KindStockReserved, Content: `not json`}},
		{"MissingIDs", &domain.Message{Kind: domain.KindStockReservationFailed, Content: `{"requestedQuantity":1}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Map(tt.msg)
			assert.ErrorIs(t, err, apperrors.ErrMapping)
		})
	}
}

func TestMap_FallsBackToCreatedAt(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &domain.Message{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      domain.KindOrderCreated,
		Content:   `{"orderId":"0190a0f4-0000-7000-8000-000000000001","productId":"0190a0f4-0000-7000-8000-000000000002","quantity":1}`,
		CreatedAt: createdAt,
	}

	contract, err := Map(msg)
	require.NoError(t, err)
	assert.Equal(t, createdAt, contract.(events.OrderCreated).OccurredAt)
}

func TestWriter_Capture(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("one row per event then clears buffer", func(t *testing.T) {
		repo := &memoryRepository{}
		writer := NewWriter(repo, clock)

		product, err := inventoryDomain.NewProduct("Widget", 10, clock.Now())
		require.NoError(t, err)
		_, err = product.Reserve(2, uuid.Must(uuid.NewV7()), clock.Now())
		require.NoError(t, err)
		_, err = product.Reserve(50, uuid.Must(uuid.NewV7()), clock.Now())
		require.NoError(t, err)

		require.NoError(t, writer.Capture(context.Background(), product))

		require.Len(t, repo.messages, 2)
		assert.Equal(t, domain.KindStockReserved, repo.messages[0].Kind)
		assert.Equal(t, domain.KindStockReservationFailed, repo.messages[1].Kind)
		assert.Equal(t, clock.Now().UTC(), repo.messages[0].CreatedAt)
		assert.Empty(t, product.PendingEvents())
	})

	t.Run("repository error keeps buffer", func(t *testing.T) {
		repo := &MockMessageRepository{}
		repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)
		writer := NewWriter(repo, clock)

		order, err := orderDomain.NewOrder(uuid.Must(uuid.NewV7()), 1, clock.Now())
		require.NoError(t, err)

		assert.ErrorIs(t, writer.Capture(context.Background(), order), assert.AnError)
		assert.Len(t, order.PendingEvents(), 1)
	})
}
