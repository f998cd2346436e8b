package usecase

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/allisson/orderflow/internal/outbox/domain"
)

// Writer turns the pending domain events of an aggregate into outbox rows.
type Writer struct {
	repo  MessageRepository
	clock clockwork.Clock
}

// NewWriter creates a new Writer.
func NewWriter(repo MessageRepository, clock clockwork.Clock) *Writer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Writer{repo: repo, clock: clock}
}

// Capture writes one row per pending event of agg and clears its buffer. It must run in
// the transaction that persists agg, so the rows commit or roll back with the state change.
func (w *Writer) Capture(ctx context.Context, agg domain.Aggregate) error {
	now := w.clock.Now()
	for _, event := range agg.PendingEvents() {
		msg, err := domain.NewMessage(event, now)
		if err != nil {
			return err
		}
		if err := w.repo.Create(ctx, msg); err != nil {
			return err
		}
	}
	agg.ClearEvents()
	return nil
}
