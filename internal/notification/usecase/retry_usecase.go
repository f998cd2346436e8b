package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/allisson/orderflow/internal/metrics"
	"github.com/allisson/orderflow/internal/notification/domain"
)

const (
	defaultRetryBatchSize  = 100
	defaultRetryStaleAfter = 5 * time.Minute
)

// retryUseCase implements the RetryUseCase interface.
type retryUseCase struct {
	config  RetryConfig
	repo    NotificationRepository
	sender  Sender
	clock   clockwork.Clock
	metrics metrics.ReliabilityMetrics
	logger  *slog.Logger
}

// NewRetryUseCase creates a new failed notification sweep.
func NewRetryUseCase(
	config RetryConfig,
	repo NotificationRepository,
	sender Sender,
	clock clockwork.Clock,
	reliabilityMetrics metrics.ReliabilityMetrics,
	logger *slog.Logger,
) RetryUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if reliabilityMetrics == nil {
		reliabilityMetrics = metrics.NewNoOpReliabilityMetrics()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultRetryBatchSize
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaultRetryStaleAfter
	}
	return &retryUseCase{
		config:  config,
		repo:    repo,
		sender:  sender,
		clock:   clock,
		metrics: reliabilityMetrics,
		logger:  logger,
	}
}

// Start runs RetryFailed on every tick until ctx is cancelled.
func (uc *retryUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting notification retry sweep",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("max_retries", uc.config.MaxRetries),
			slog.Duration("stale_after", uc.config.StaleAfter),
		)
	}

	ticker := uc.clock.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping notification retry sweep")
			}
			return ctx.Err()
		case <-ticker.Chan():
			if _, err := uc.RetryFailed(ctx); err != nil && uc.logger != nil {
				uc.logger.Error("failed to retry notifications", slog.Any("error", err))
			}
		}
	}
}

// RetryFailed re-sends each Failed notification under the retry ceiling and each Pending
// claim older than StaleAfter, least recently updated first. A stale claim is a send whose
// outcome was never stored, after a crash or a failed update. A repository error stops the
// sweep; rows already handled keep their new status.
func (uc *retryUseCase) RetryFailed(ctx context.Context) (RetrySummary, error) {
	var summary RetrySummary

	staleBefore := uc.clock.Now().Add(-uc.config.StaleAfter)
	notifications, err := uc.repo.ListRetryable(ctx, uc.config.MaxRetries, staleBefore, uc.config.BatchSize)
	if err != nil {
		return summary, err
	}

	for _, n := range notifications {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		if n.Status == domain.StatusPending && uc.logger != nil {
			uc.logger.Warn("reclaiming stale pending notification",
				slog.String("notification_id", n.ID.String()),
				slog.String("order_id", n.OrderID.String()),
				slog.Time("updated_at", n.UpdatedAt),
			)
		}
		if err := n.ResetForRetry(uc.clock.Now()); err != nil {
			return summary, err
		}
		if err := deliver(ctx, uc.repo, uc.sender, uc.clock, n); err != nil {
			return summary, err
		}

		summary.Attempted++
		if n.Status == domain.StatusSent {
			summary.Sent++
		} else {
			summary.Failed++
		}
		uc.metrics.RecordNotificationDelivery(ctx, string(n.Type), string(n.Status))
	}

	if uc.logger != nil && summary.Attempted > 0 {
		uc.logger.Info("notification retry sweep finished",
			slog.Int("attempted", summary.Attempted),
			slog.Int("sent", summary.Sent),
			slog.Int("failed", summary.Failed),
		)
	}
	return summary, nil
}
