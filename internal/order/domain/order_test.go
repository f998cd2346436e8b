package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orderflow/internal/errors"
	outboxDomain "github.com/allisson/orderflow/internal/outbox/domain"
)

func TestNewOrder(t *testing.T) {
	now := time.Now()
	productID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		o, err := NewOrder(productID, 5, now)
		require.NoError(t, err)

		assert.Equal(t, uuid.Version(7), o.ID.Version())
		assert.Equal(t, productID, o.ProductID)
		assert.Equal(t, 5, o.Quantity)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, now.UTC(), o.CreatedAt)
		assert.Equal(t, o.CreatedAt, o.UpdatedAt)

		events := o.PendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, outboxDomain.KindOrderCreated, events[0].Kind())
		assert.Equal(t, OrderCreated{
			OrderID:    o.ID,
			ProductID:  productID,
			Quantity:   5,
			OccurredAt: now.UTC(),
		}, events[0])
	})

	tests := []struct {
		name      string
		productID uuid.UUID
		quantity  int
		expectErr error
	}{
		{"ZeroQuantity", productID, 0, ErrInvalidQuantity},
		{"NegativeQuantity", productID, -1, ErrInvalidQuantity},
		{"QuantityAboveMax", productID, MaxQuantity + 1, ErrInvalidQuantity},
		{"NilProduct", uuid.Nil, 1, ErrInvalidProductID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.productID, tt.quantity, now)
			assert.ErrorIs(t, err, tt.expectErr)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}

	t.Run("MaxQuantityAllowed", func(t *testing.T) {
		_, err := NewOrder(productID, MaxQuantity, now)
		assert.NoError(t, err)
	})
}

func TestOrder_Confirm(t *testing.T) {
	later := time.Now().Add(time.Minute)

	tests := []struct {
		name          string
		status        Status
		expectChanged bool
		expectStatus  Status
		expectErr     error
	}{
		{"FromPending", StatusPending, true, StatusConfirmed, nil},
		{"AlreadyConfirmed", StatusConfirmed, false, StatusConfirmed, nil},
		{"FromCancelled", StatusCancelled, false, StatusCancelled, ErrOrderAlreadyCancelled},
		{"FromUnknown", Status("Shipped"), false, Status("Shipped"), ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.status}
			changed, err := o.Confirm(later)

			assert.Equal(t, tt.expectChanged, changed)
			assert.Equal(t, tt.expectStatus, o.Status)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.ErrorIs(t, err, errors.ErrBusinessRule)
			} else {
				assert.NoError(t, err)
			}
			if changed {
				assert.Equal(t, later.UTC(), o.UpdatedAt)
			}
		})
	}
}

func TestOrder_Cancel(t *testing.T) {
	tests := []struct {
		name          string
		status        Status
		expectChanged bool
		expectStatus  Status
		expectErr     error
	}{
		{"FromPending", StatusPending, true, StatusCancelled, nil},
		{"AlreadyCancelled", StatusCancelled, false, StatusCancelled, nil},
		{"FromConfirmed", StatusConfirmed, false, StatusConfirmed, ErrOrderAlreadyConfirmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.status}
			changed, err := o.Cancel(time.Now())

			assert.Equal(t, tt.expectChanged, changed)
			assert.Equal(t, tt.expectStatus, o.Status)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrder_TransitionsRaiseNoEvents(t *testing.T) {
	o, err := NewOrder(uuid.Must(uuid.NewV7()), 1, time.Now())
	require.NoError(t, err)
	o.ClearEvents()

	_, err = o.Confirm(time.Now())
	require.NoError(t, err)
	assert.Empty(t, o.PendingEvents())
}

func TestOrder_Snapshot(t *testing.T) {
	o, err := NewOrder(uuid.Must(uuid.NewV7()), 3, time.Now())
	require.NoError(t, err)

	s := o.Snapshot()
	assert.Equal(t, o.ID, s.ID)
	assert.Equal(t, o.ProductID, s.ProductID)
	assert.Equal(t, 3, s.Quantity)
	assert.Equal(t, StatusPending, s.Status)
}
