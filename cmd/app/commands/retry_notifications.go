package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	notificationUseCase "github.com/allisson/orderflow/internal/notification/usecase"
)

// retrySummaryOutput is the JSON form of a sweep summary.
type retrySummaryOutput struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// RunRetryNotifications runs one sweep over Failed notifications and reports the counts.
//
// Requirements: SERVICE_NAME=notifications and a migrated database.
func RunRetryNotifications(
	ctx context.Context,
	retryUseCase notificationUseCase.RetryUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("retrying failed notifications")

	summary, err := retryUseCase.RetryFailed(ctx)
	if err != nil {
		return fmt.Errorf("failed to retry notifications: %w", err)
	}

	logger.Info("notification retry completed",
		slog.Int("attempted", summary.Attempted),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
	)

	if format == "json" {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(retrySummaryOutput(summary))
	}

	_, _ = fmt.Fprintf(writer, "Attempted: %d\nSent: %d\nFailed: %d\n",
		summary.Attempted, summary.Sent, summary.Failed)
	return nil
}
