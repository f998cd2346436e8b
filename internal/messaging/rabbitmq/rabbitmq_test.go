package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orderflow/internal/events"
	"github.com/allisson/orderflow/internal/messaging"
)

type fakeChannel struct {
	mu          sync.Mutex
	deliveries  chan amqp.Delivery
	exchanges   []string
	queues      []string
	bindings    map[string]string
	confirmed   bool
	publishErr  error
	publishKeys []string
	closed      bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 10), bindings: map[string]string{}}
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges = append(c.exchanges, name+":"+kind)
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queues = append(c.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, _ string, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[name] = key
	return nil
}

func (c *fakeChannel) Qos(int, int, bool) error { return nil }

func (c *fakeChannel) Confirm(bool) error {
	c.confirmed = true
	return nil
}

func (c *fakeChannel) PublishWithDeferredConfirmWithContext(
	_ context.Context,
	_, key string,
	_, _ bool,
	_ amqp.Publishing,
) (*amqp.DeferredConfirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishKeys = append(c.publishKeys, key)
	return nil, c.publishErr
}

func (c *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeConnection struct {
	channels []*fakeChannel
	next     int
}

func (c *fakeConnection) Channel() (Channel, error) {
	ch := c.channels[c.next]
	c.next++
	return ch, nil
}

func (c *fakeConnection) Close() error { return nil }

type fakeAcknowledger struct {
	mu     sync.Mutex
	acks   int
	nacks  int
	notify chan struct{}
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.mu.Lock()
	a.acks++
	a.mu.Unlock()
	a.notify <- struct{}{}
	return nil
}

func (a *fakeAcknowledger) Nack(uint64, bool, bool) error {
	a.mu.Lock()
	a.nacks++
	a.mu.Unlock()
	a.notify <- struct{}{}
	return nil
}

func (a *fakeAcknowledger) Reject(uint64, bool) error { return nil }

func TestQueueName(t *testing.T) {
	assert.Equal(t, "OrderCreated-inventory", QueueName(events.OrderCreatedType, "inventory"))
	assert.Equal(t, "OutOfStock-notifications", QueueName(events.OutOfStockType, "notifications"))
}

func TestNewWithConnection(t *testing.T) {
	pubCh := newFakeChannel()
	conn := &fakeConnection{channels: []*fakeChannel{pubCh}}

	bus, err := NewWithConnection(conn, Config{Exchange: "orderflow.events"}, nil)
	require.NoError(t, err)

	assert.True(t, pubCh.confirmed)
	assert.Equal(t, []string{"orderflow.events:topic"}, pubCh.exchanges)
	assert.Equal(t, DefaultConfirmTimeout, bus.config.ConfirmTimeout)
	assert.Equal(t, 10, bus.config.Prefetch)
}

func TestBus_Publish(t *testing.T) {
	t.Run("publish error", func(t *testing.T) {
		pubCh := newFakeChannel()
		pubCh.publishErr = amqp.ErrClosed
		bus, err := NewWithConnection(&fakeConnection{channels: []*fakeChannel{pubCh}}, Config{Exchange: "x"}, nil)
		require.NoError(t, err)

		err = bus.Publish(context.Background(), messaging.Message{ID: "1", Type: events.OrderCreatedType})
		assert.ErrorIs(t, err, amqp.ErrClosed)
		assert.Equal(t, []string{"OrderCreated"}, pubCh.publishKeys)
	})

	t.Run("missing confirmation", func(t *testing.T) {
		pubCh := newFakeChannel()
		bus, err := NewWithConnection(&fakeConnection{channels: []*fakeChannel{pubCh}}, Config{Exchange: "x"}, nil)
		require.NoError(t, err)

		err = bus.Publish(context.Background(), messaging.Message{ID: "1", Type: events.OutOfStockType})
		assert.ErrorIs(t, err, ErrNotConfirmMode)
	})
}

func TestBus_Subscribe(t *testing.T) {
	pubCh := newFakeChannel()
	subCh := newFakeChannel()
	bus, err := NewWithConnection(
		&fakeConnection{channels: []*fakeChannel{pubCh, subCh}},
		Config{Exchange: "orderflow.events", Service: "orders"},
		nil,
	)
	require.NoError(t, err)

	ack := &fakeAcknowledger{notify: make(chan struct{}, 2)}
	subCh.deliveries <- amqp.Delivery{Acknowledger: ack, MessageId: "ok", Body: []byte(`{}`)}
	subCh.deliveries <- amqp.Delivery{Acknowledger: ack, MessageId: "fail", Body: []byte(`{}`)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var received []string
	go func() {
		done <- bus.Subscribe(ctx, events.InventoryUpdatedType, func(_ context.Context, msg messaging.Message) error {
			received = append(received, msg.ID)
			if msg.ID == "fail" {
				return errors.New("boom")
			}
			return nil
		})
	}()

	for range 2 {
		select {
		case <-ack.notify:
		case <-time.After(time.Second):
			t.Fatal("delivery not settled")
		}
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"ok", "fail"}, received)
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 1, ack.nacks)
	assert.Equal(t, []string{"InventoryUpdated-orders"}, subCh.queues)
	assert.Equal(t, "InventoryUpdated", subCh.bindings["InventoryUpdated-orders"])
	assert.True(t, subCh.closed)
}
