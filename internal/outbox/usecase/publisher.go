package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/messaging"
	"github.com/allisson/orderflow/internal/metrics"
	"github.com/allisson/orderflow/internal/outbox/domain"
)

// Config holds outbox publisher configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// PublisherUseCase polls the outbox and publishes pending rows to the message bus.
type PublisherUseCase struct {
	config     Config
	txManager  database.TxManager
	outboxRepo MessageRepository
	bus        messaging.Publisher
	clock      clockwork.Clock
	metrics    metrics.ReliabilityMetrics
	logger     *slog.Logger
}

// NewPublisherUseCase creates a new PublisherUseCase.
func NewPublisherUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo MessageRepository,
	bus messaging.Publisher,
	clock clockwork.Clock,
	reliabilityMetrics metrics.ReliabilityMetrics,
	logger *slog.Logger,
) *PublisherUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if reliabilityMetrics == nil {
		reliabilityMetrics = metrics.NewNoOpReliabilityMetrics()
	}
	return &PublisherUseCase{
		config:     config,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		bus:        bus,
		clock:      clock,
		metrics:    reliabilityMetrics,
		logger:     logger,
	}
}

// Start runs PublishPending on every tick until ctx is cancelled.
func (uc *PublisherUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting outbox publisher",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
			slog.Int("max_retries", uc.config.MaxRetries),
		)
	}

	ticker := uc.clock.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping outbox publisher")
			}
			return ctx.Err()
		case <-ticker.Chan():
			if err := uc.PublishPending(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to publish outbox messages", slog.Any("error", err))
				}
			}
		}
	}
}

// PublishPending locks one batch of eligible rows, publishes each one and persists the
// outcome of every row in the same transaction. Publish failures are recorded on the row.
// Repository errors and rejected state transitions abort the batch.
func (uc *PublisherUseCase) PublishPending(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		messages, err := uc.outboxRepo.GetPending(ctx, uc.config.BatchSize, uc.config.MaxRetries)
		if err != nil {
			return err
		}

		if len(messages) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Debug("publishing outbox messages", slog.Int("count", len(messages)))
		}

		for _, msg := range messages {
			outcome, err := uc.publishMessage(ctx, msg)
			if err != nil {
				return fmt.Errorf("outbox message %s: %w", msg.ID, err)
			}
			if err := uc.outboxRepo.Update(ctx, msg); err != nil {
				return err
			}
			uc.metrics.RecordOutboxPublish(ctx, string(msg.Kind), outcome)
		}

		return nil
	})
}

// publishMessage applies the publish result to msg and returns the metric outcome. The
// error is a transition msg refused, such as a row that was already published.
func (uc *PublisherUseCase) publishMessage(ctx context.Context, msg *domain.Message) (string, error) {
	busMsg, err := toBusMessage(msg)
	if err != nil {
		if uc.logger != nil {
			uc.logger.Error("outbox message cannot be mapped, abandoning it",
				slog.String("message_id", msg.ID.String()),
				slog.String("kind", string(msg.Kind)),
				slog.Any("error", err),
			)
		}
		if err := msg.MarkDead(err, uc.config.MaxRetries); err != nil {
			return "", err
		}
		return metrics.OutboxDead, nil
	}

	if err := uc.bus.Publish(ctx, busMsg); err != nil {
		return uc.recordTransportFailure(msg, err)
	}

	if err := msg.MarkPublished(uc.clock.Now()); err != nil {
		return "", err
	}
	return metrics.OutboxPublished, nil
}

func toBusMessage(msg *domain.Message) (messaging.Message, error) {
	event, err := Map(msg)
	if err != nil {
		return messaging.Message{}, err
	}
	return messaging.NewMessage(event)
}

func (uc *PublisherUseCase) recordTransportFailure(msg *domain.Message, cause error) (string, error) {
	if err := msg.MarkFailed(fmt.Errorf("%w: %w", apperrors.ErrTransport, cause)); err != nil {
		return "", err
	}

	outcome := metrics.OutboxRetrying
	if !msg.IsEligible(uc.config.MaxRetries) {
		outcome = metrics.OutboxDead
	}

	if uc.logger != nil {
		uc.logger.Warn("failed to publish outbox message",
			slog.String("message_id", msg.ID.String()),
			slog.String("kind", string(msg.Kind)),
			slog.Int("retry_count", msg.RetryCount),
			slog.String("outcome", outcome),
			slog.Any("error", cause),
		)
	}
	return outcome, nil
}
