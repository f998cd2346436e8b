package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/orderflow/internal/errors"
)

func sample(t Type) Event {
	env := NewEnvelope(time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC))
	switch t {
	case OrderCreatedType:
		return OrderCreated{Envelope: env, OrderID: uuid.New(), ProductID: uuid.New(), Quantity: 5}
	case InventoryUpdatedType:
		return InventoryUpdated{Envelope: env, OrderID: uuid.New(), ProductID: uuid.New(), QuantityReserved: 5, RemainingStock: 5}
	case OutOfStockType:
		return OutOfStock{Envelope: env, OrderID: uuid.New(), ProductID: uuid.New(), RequestedQuantity: 100, AvailableStock: 3}
	}
	return nil
}

func TestDecode_AllTypes(t *testing.T) {
	for _, typ := range AllTypes() {
		t.Run(string(typ), func(t *testing.T) {
			event := sample(typ)
			require.NotNil(t, event, "every type needs a sample")

			body, err := Encode(event)
			require.NoError(t, err)

			decoded, err := Decode(typ, body)
			require.NoError(t, err)
			assert.Equal(t, typ, decoded.EventType())
			assert.Equal(t, event, decoded)
		})
	}
}

func TestEncode_WireFormat(t *testing.T) {
	orderID := uuid.MustParse("0195a1c2-0000-7000-8000-000000000001")
	productID := uuid.MustParse("0195a1c2-0000-7000-8000-000000000002")
	event := OutOfStock{
		Envelope: Envelope{
			ID:         uuid.MustParse("0195a1c2-0000-7000-8000-000000000003"),
			OccurredAt: time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		},
		OrderID:           orderID,
		ProductID:         productID,
		RequestedQuantity: 100,
		AvailableStock:    3,
	}

	body, err := Encode(event)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.Equal(t, "0195a1c2-0000-7000-8000-000000000003", fields["eventId"])
	assert.Equal(t, "2026-02-19T12:00:00Z", fields["occurredAt"])
	assert.Equal(t, orderID.String(), fields["orderId"])
	assert.Equal(t, float64(100), fields["requestedQuantity"])
	assert.Equal(t, float64(3), fields["availableStock"])
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode("PaymentCaptured", []byte(`{}`))
	assert.ErrorIs(t, err, apperrors.ErrMapping)
}

func TestDecode_MalformedBody(t *testing.T) {
	_, err := Decode(OrderCreatedType, []byte(`{"orderId":`))
	assert.ErrorIs(t, err, apperrors.ErrMapping)
}

func TestNewEnvelope(t *testing.T) {
	a := NewEnvelope(time.Now())
	b := NewEnvelope(time.Now())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.OccurredAt.Location())
}
