package domain

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orderflow/internal/errors"
)

func TestNewNotification(t *testing.T) {
	orderID := uuid.Must(uuid.NewV7())
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		n, err := NewNotification(orderID, TypeOrderConfirmed, "hello", now)
		require.NoError(t, err)

		assert.Equal(t, StatusPending, n.Status)
		assert.Equal(t, 0, n.RetryCount)
		assert.Nil(t, n.FailureReason)
		assert.Equal(t, now.UTC(), n.CreatedAt)
	})

	tests := []struct {
		name    string
		orderID uuid.UUID
		typ     Type
		message string
		want    error
	}{
		{"NilOrder", uuid.Nil, TypeOrderConfirmed, "hi", ErrInvalidOrderID},
		{"UnknownType", orderID, Type("OrderShipped"), "hi", ErrInvalidType},
		{"BlankMessage", orderID, TypeOrderRejected, "  ", ErrEmptyMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNotification(tt.orderID, tt.typ, tt.message, now)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}

	t.Run("LongMessageIsTruncated", func(t *testing.T) {
		n, err := NewNotification(orderID, TypeOrderConfirmed, strings.Repeat("x", 1200), now)
		require.NoError(t, err)
		assert.Len(t, n.Message, MaxMessageLength)
	})

	t.Run("MultibyteMessageTruncatedOnRuneBoundary", func(t *testing.T) {
		message := "a" + strings.Repeat("é", MaxMessageLength)
		n, err := NewNotification(orderID, TypeOrderConfirmed, message, now)
		require.NoError(t, err)

		assert.True(t, utf8.ValidString(n.Message))
		assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(n.Message))
		assert.Equal(t, "a"+strings.Repeat("é", MaxMessageLength-1), n.Message)
	})

	t.Run("MultibyteMessageWithinLimitKept", func(t *testing.T) {
		message := strings.Repeat("ü", MaxMessageLength)
		n, err := NewNotification(orderID, TypeOrderConfirmed, message, now)
		require.NoError(t, err)
		assert.Equal(t, message, n.Message)
	})
}

func TestNotification_StatusMachine(t *testing.T) {
	now := time.Now()
	newPending := func(t *testing.T) *Notification {
		n, err := NewNotification(uuid.Must(uuid.NewV7()), TypeOrderRejected, "msg", now)
		require.NoError(t, err)
		return n
	}

	t.Run("PendingToSent", func(t *testing.T) {
		n := newPending(t)
		require.NoError(t, n.MarkSent(now))
		assert.Equal(t, StatusSent, n.Status)

		assert.ErrorIs(t, n.MarkSent(now), ErrNotificationAlreadySent)
		assert.ErrorIs(t, n.MarkFailed("late", now), ErrNotificationAlreadySent)
		assert.ErrorIs(t, n.ResetForRetry(now), ErrNotificationNotFailed)
		assert.ErrorIs(t, n.ResetForRetry(now), errors.ErrBusinessRule)
	})

	t.Run("FailedCountsRetries", func(t *testing.T) {
		n := newPending(t)
		require.NoError(t, n.MarkFailed("smtp down", now))
		require.NoError(t, n.MarkFailed("smtp still down", now))

		assert.Equal(t, StatusFailed, n.Status)
		assert.Equal(t, 2, n.RetryCount)
		require.NotNil(t, n.FailureReason)
		assert.Equal(t, "smtp still down", *n.FailureReason)
	})

	t.Run("ResetStalePendingClaim", func(t *testing.T) {
		n := newPending(t)
		later := now.Add(10 * time.Minute)
		require.NoError(t, n.ResetForRetry(later))
		assert.Equal(t, StatusPending, n.Status)
		assert.Equal(t, 0, n.RetryCount)
		assert.Equal(t, later.UTC(), n.UpdatedAt)
	})

	t.Run("ResetFromFailed", func(t *testing.T) {
		n := newPending(t)
		require.NoError(t, n.MarkFailed("timeout", now))
		require.NoError(t, n.ResetForRetry(now))
		assert.Equal(t, StatusPending, n.Status)
		assert.Equal(t, 1, n.RetryCount)

		require.NoError(t, n.MarkSent(now))
		assert.Nil(t, n.FailureReason)
	})
}

func TestMessages(t *testing.T) {
	orderID := uuid.MustParse("0190a0f4-0000-7000-8000-000000000001")
	productID := uuid.MustParse("0190a0f4-0000-7000-8000-000000000002")

	assert.Equal(t,
		"Your order 0190a0f4-0000-7000-8000-000000000001 has been confirmed! 5 unit(s) of product "+
			"0190a0f4-0000-7000-8000-000000000002 reserved. Remaining stock: 5.",
		ConfirmedMessage(orderID, productID, 5, 5),
	)
	assert.Equal(t,
		"Your order 0190a0f4-0000-7000-8000-000000000001 is REJECTED. Product "+
			"0190a0f4-0000-7000-8000-000000000002 has insufficient stock. Requested: 100, Available: 3.",
		RejectedMessage(orderID, productID, 100, 3),
	)
}
