package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orderflow/internal/events"
)

func TestWithRedelivery_SucceedsFirstTime(t *testing.T) {
	var calls atomic.Int32
	handler := WithRedelivery(DefaultRedeliveryIntervals, clockwork.NewFakeClock(), nil)(
		func(ctx context.Context, msg Message) error {
			calls.Add(1)
			return nil
		},
	)

	require.NoError(t, handler(context.Background(), Message{Type: events.OrderCreatedType}))
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithRedelivery_RecoversOnSecondAttempt(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	handler := WithRedelivery(DefaultRedeliveryIntervals, clock, nil)(
		func(ctx context.Context, msg Message) error {
			if calls.Add(1) == 1 {
				return errors.New("database unavailable")
			}
			return nil
		},
	)

	done := make(chan error, 1)
	go func() { done <- handler(context.Background(), Message{Type: events.OrderCreatedType}) }()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler did not return")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestWithRedelivery_ExhaustsIntervals(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	handler := WithRedelivery(DefaultRedeliveryIntervals, clock, nil)(
		func(ctx context.Context, msg Message) error {
			calls.Add(1)
			return errors.New("database unavailable")
		},
	)

	done := make(chan error, 1)
	go func() { done <- handler(context.Background(), Message{Type: events.OrderCreatedType}) }()

	for _, interval := range DefaultRedeliveryIntervals {
		require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
		clock.Advance(interval)
	}

	select {
	case err := <-done:
		assert.EqualError(t, err, "database unavailable")
	case <-time.After(time.Second):
		t.Fatal("handler did not return")
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestWithRedelivery_StopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	handler := WithRedelivery(DefaultRedeliveryIntervals, clock, nil)(
		func(ctx context.Context, msg Message) error {
			return errors.New("database unavailable")
		},
	)

	done := make(chan error, 1)
	go func() { done <- handler(ctx, Message{Type: events.OrderCreatedType}) }()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, msg Message) error {
				order = append(order, name)
				return next(ctx, msg)
			}
		}
	}

	h := Chain(func(ctx context.Context, msg Message) error {
		order = append(order, "handler")
		return nil
	}, mw("outer"), mw("inner"))

	require.NoError(t, h(context.Background(), Message{}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestNewMessage(t *testing.T) {
	event := events.OrderCreated{Envelope: events.NewEnvelope(time.Now()), Quantity: 2}

	msg, err := NewMessage(event)
	require.NoError(t, err)
	assert.Equal(t, events.OrderCreatedType, msg.Type)
	assert.Equal(t, event.ID.String(), msg.ID)
	assert.Contains(t, string(msg.Body), `"quantity":2`)
}
