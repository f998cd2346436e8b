package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/notification/domain"
)

// ErrSenderUnavailable is returned while the circuit is open and the delivery was not attempted.
var ErrSenderUnavailable = apperrors.Wrap(apperrors.ErrTransport, "notification sender unavailable")

// BreakerConfig holds circuit breaker settings for a Sender.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int
	// Timeout is how long the circuit stays open before allowing a trial request.
	Timeout time.Duration
}

// BreakerSender guards another Sender with a circuit breaker so a failing provider is not
// hammered by the retry sweep.
type BreakerSender struct {
	next    Sender
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerSender wraps next in a circuit breaker.
func NewBreakerSender(next Sender, config BreakerConfig, logger *slog.Logger) *BreakerSender {
	maxFailures := config.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "notification-sender",
		MaxRequests: 1,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			}
		},
		// A cancelled context is not the provider's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerSender{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Send delivers n through the breaker.
func (s *BreakerSender) Send(ctx context.Context, n *domain.Notification) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.next.Send(ctx, n)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrSenderUnavailable, err)
	}
	return err
}

// State returns the current breaker state name.
func (s *BreakerSender) State() string {
	return s.breaker.State().String()
}
