package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultRedeliveryIntervals are the in-process retry delays applied before a delivery
// is handed back to the broker unacknowledged.
var DefaultRedeliveryIntervals = []time.Duration{time.Second, 5 * time.Second, 15 * time.Second}

// WithRedelivery retries a failing handler once per interval, waiting the interval before
// each retry. When every retry fails the last error is returned and the driver nacks.
func WithRedelivery(intervals []time.Duration, clock clockwork.Clock, logger *slog.Logger) Middleware {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, msg Message) error {
			err := next(ctx, msg)
			for attempt, interval := range intervals {
				if err == nil {
					return nil
				}

				if logger != nil {
					logger.Warn("delivery failed, scheduling redelivery",
						slog.String("event_type", string(msg.Type)),
						slog.String("message_id", msg.ID),
						slog.Int("attempt", attempt+1),
						slog.Duration("delay", interval),
						slog.Any("error", err),
					)
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-clock.After(interval):
				}

				err = next(ctx, msg)
			}

			if err != nil && logger != nil {
				logger.Error("delivery failed after redelivery attempts",
					slog.String("event_type", string(msg.Type)),
					slog.String("message_id", msg.ID),
					slog.Any("error", err),
				)
			}
			return err
		}
	}
}
