package commands

import (
	"context"
	"fmt"
	"log/slog"
)

// OutboxPublisher publishes one batch of pending outbox rows.
type OutboxPublisher interface {
	PublishPending(ctx context.Context) error
}

// RunPublishOutbox runs a single publisher tick outside the server process. Useful to
// drain the outbox after the bus was unavailable or from a scheduled job.
func RunPublishOutbox(ctx context.Context, publisher OutboxPublisher, logger *slog.Logger) error {
	logger.Info("publishing pending outbox messages")

	if err := publisher.PublishPending(ctx); err != nil {
		return fmt.Errorf("failed to publish outbox messages: %w", err)
	}

	logger.Info("outbox batch published")
	return nil
}
