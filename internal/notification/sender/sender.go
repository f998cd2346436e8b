// Package sender delivers notification messages to customers.
package sender

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/allisson/orderflow/internal/notification/domain"
)

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// LogSender writes the notification to the log after a simulated delivery latency.
type LogSender struct {
	latency time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(latency time.Duration, clock clockwork.Clock, logger *slog.Logger) *LogSender {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LogSender{latency: latency, clock: clock, logger: logger}
}

// Send waits out the configured latency and logs the message. It returns ctx.Err() when
// the context ends first.
func (s *LogSender) Send(ctx context.Context, n *domain.Notification) error {
	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.latency):
		}
	}

	if s.logger != nil {
		s.logger.Info("notification delivered",
			slog.String("notification_id", n.ID.String()),
			slog.String("order_id", n.OrderID.String()),
			slog.String("type", string(n.Type)),
			slog.String("message", n.Message),
		)
	}
	return nil
}
