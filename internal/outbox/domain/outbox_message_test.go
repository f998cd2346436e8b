package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	Value int `json:"value"`
}

func (testEvent) Kind() Kind { return KindOrderCreated }

type unserializableEvent struct {
	Ch chan int `json:"ch"`
}

func (unserializableEvent) Kind() Kind { return KindStockReserved }

type testAggregate struct {
	EventBuffer
}

func TestAllKinds(t *testing.T) {
	kinds := AllKinds()
	assert.Len(t, kinds, 3)

	seen := map[Kind]bool{}
	for _, k := range kinds {
		assert.False(t, seen[k], "duplicate kind %s", k)
		seen[k] = true
	}
}

func TestEventBuffer(t *testing.T) {
	var agg Aggregate = &testAggregate{}
	assert.Empty(t, agg.PendingEvents())

	buf := agg.(*testAggregate)
	buf.Raise(testEvent{Value: 1})
	buf.Raise(testEvent{Value: 2})

	events := agg.PendingEvents()
	require.Len(t, events, 2)
	assert.Equal(t, testEvent{Value: 1}, events[0])
	assert.Equal(t, testEvent{Value: 2}, events[1])

	events[0] = nil
	assert.NotNil(t, agg.PendingEvents()[0])

	agg.ClearEvents()
	assert.Empty(t, agg.PendingEvents())
}

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))

	t.Run("Success", func(t *testing.T) {
		msg, err := NewMessage(testEvent{Value: 42}, now)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, msg.ID)
		assert.Equal(t, uuid.Version(7), msg.ID.Version())
		assert.Equal(t, KindOrderCreated, msg.Kind)
		assert.JSONEq(t, `{"value":42}`, msg.Content)
		assert.Equal(t, now.UTC(), msg.CreatedAt)
		assert.Nil(t, msg.ProcessedAt)
		assert.Zero(t, msg.RetryCount)
		assert.Nil(t, msg.Error)
	})

	t.Run("SerializationError", func(t *testing.T) {
		_, err := NewMessage(unserializableEvent{Ch: make(chan int)}, now)
		var jsonErr *json.UnsupportedTypeError
		assert.ErrorAs(t, err, &jsonErr)
	})
}

func TestMessage_Transitions(t *testing.T) {
	now := time.Now()

	t.Run("MarkFailed increments until ineligible", func(t *testing.T) {
		msg := &Message{}
		for i := 1; i <= 3; i++ {
			require.True(t, msg.IsEligible(3))
			require.NoError(t, msg.MarkFailed(errors.New("broker down")))
			assert.Equal(t, i, msg.RetryCount)
		}
		assert.False(t, msg.IsEligible(3))
		require.NotNil(t, msg.Error)
		assert.Equal(t, "broker down", *msg.Error)
	})

	t.Run("MarkPublished clears error", func(t *testing.T) {
		msg := &Message{}
		require.NoError(t, msg.MarkFailed(errors.New("timeout")))
		require.NoError(t, msg.MarkPublished(now))

		assert.True(t, msg.IsProcessed())
		assert.False(t, msg.IsEligible(3))
		assert.Nil(t, msg.Error)
		assert.Equal(t, 1, msg.RetryCount)
	})

	t.Run("MarkDead jumps to ceiling", func(t *testing.T) {
		msg := &Message{}
		require.NoError(t, msg.MarkDead(errors.New("unknown kind"), 3))

		assert.Equal(t, 3, msg.RetryCount)
		assert.False(t, msg.IsEligible(3))
		assert.False(t, msg.IsProcessed())
		assert.Equal(t, "unknown kind", *msg.Error)
	})

	t.Run("processed message is immutable", func(t *testing.T) {
		msg := &Message{}
		require.NoError(t, msg.MarkPublished(now))
		processedAt := *msg.ProcessedAt

		assert.ErrorIs(t, msg.MarkPublished(now.Add(time.Hour)), ErrMessageProcessed)
		assert.ErrorIs(t, msg.MarkFailed(errors.New("x")), ErrMessageProcessed)
		assert.ErrorIs(t, msg.MarkDead(errors.New("x"), 3), ErrMessageProcessed)
		assert.Equal(t, processedAt, *msg.ProcessedAt)
		assert.Zero(t, msg.RetryCount)
	})
}
