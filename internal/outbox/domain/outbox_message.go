// Package domain defines the transactional outbox message and the contract aggregates
// use to hand their domain events to the outbox writer.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/errors"
)

// Kind is the stable tag stored in the outbox type column.
type Kind string

// Known outbox kinds.
const (
	KindOrderCreated           Kind = "order.created"
	KindStockReserved          Kind = "inventory.stock_reserved"
	KindStockReservationFailed Kind = "inventory.stock_reservation_failed"
)

// AllKinds lists every kind the publisher must be able to map.
func AllKinds() []Kind {
	return []Kind{KindOrderCreated, KindStockReserved, KindStockReservationFailed}
}

// Event is a domain event raised by an aggregate.
type Event interface {
	Kind() Kind
}

// Aggregate exposes the domain events raised since the last capture.
type Aggregate interface {
	PendingEvents() []Event
	ClearEvents()
}

// EventBuffer is embedded by aggregates to collect raised events.
type EventBuffer struct {
	events []Event
}

// Raise appends an event to the buffer.
func (b *EventBuffer) Raise(e Event) {
	b.events = append(b.events, e)
}

// PendingEvents returns a copy of the buffered events in raise order.
func (b *EventBuffer) PendingEvents() []Event {
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// ClearEvents empties the buffer.
func (b *EventBuffer) ClearEvents() {
	b.events = nil
}

// ErrMessageProcessed is returned when mutating a message that was already published.
var ErrMessageProcessed = errors.Wrap(errors.ErrBusinessRule, "outbox message already processed")

// Message is one row of the outbox table.
type Message struct {
	ID          uuid.UUID
	Kind        Kind
	Content     string
	CreatedAt   time.Time
	ProcessedAt *time.Time
	RetryCount  int
	Error       *string
}

// NewMessage serializes event into a new unpublished message.
func NewMessage(event Event, now time.Time) (*Message, error) {
	content, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s event: %w", event.Kind(), err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate outbox message id: %w", err)
	}

	return &Message{
		ID:        id,
		Kind:      event.Kind(),
		Content:   string(content),
		CreatedAt: now.UTC(),
	}, nil
}

// IsProcessed reports whether the message was published.
func (m *Message) IsProcessed() bool {
	return m.ProcessedAt != nil
}

// IsEligible reports whether the publisher may still pick the message up.
func (m *Message) IsEligible(maxRetries int) bool {
	return !m.IsProcessed() && m.RetryCount < maxRetries
}

// MarkPublished records a successful publish and clears any previous error.
func (m *Message) MarkPublished(now time.Time) error {
	if m.IsProcessed() {
		return ErrMessageProcessed
	}
	processedAt := now.UTC()
	m.ProcessedAt = &processedAt
	m.Error = nil
	return nil
}

// MarkFailed records a transport failure. The message stays eligible until the retry
// count reaches the ceiling.
func (m *Message) MarkFailed(cause error) error {
	if m.IsProcessed() {
		return ErrMessageProcessed
	}
	m.RetryCount++
	m.setError(cause)
	return nil
}

// MarkDead records a failure that can never succeed and pushes the retry count to the
// ceiling so the message leaves the pending selection while staying visible.
func (m *Message) MarkDead(cause error, maxRetries int) error {
	if m.IsProcessed() {
		return ErrMessageProcessed
	}
	if m.RetryCount < maxRetries {
		m.RetryCount = maxRetries
	}
	m.setError(cause)
	return nil
}

func (m *Message) setError(cause error) {
	if cause == nil {
		m.Error = nil
		return
	}
	msg := cause.Error()
	m.Error = &msg
}
