// Package repository provides data persistence implementations for notifications.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/notification/domain"
)

const notificationColumns = `id, order_id, type, status, message, retry_count, failure_reason, created_at, updated_at`

// PostgreSQLNotificationRepository handles notification persistence for PostgreSQL.
type PostgreSQLNotificationRepository struct {
	db *sql.DB
}

// NewPostgreSQLNotificationRepository creates a new PostgreSQLNotificationRepository.
func NewPostgreSQLNotificationRepository(db *sql.DB) *PostgreSQLNotificationRepository {
	return &PostgreSQLNotificationRepository{db: db}
}

// Create inserts a notification. The unique (order_id, type) index turns a second
// notification of the same type into ErrNotificationDuplicate.
func (r *PostgreSQLNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notifications (` + notificationColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		n.ID,
		n.OrderID,
		n.Type,
		n.Status,
		n.Message,
		n.RetryCount,
		n.FailureReason,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrNotificationDuplicate
		}
		return apperrors.Wrap(err, "failed to create notification")
	}
	return nil
}

// Update persists the delivery state of a notification.
func (r *PostgreSQLNotificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE notifications SET status = $1, retry_count = $2, failure_reason = $3, updated_at = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(ctx, query, n.Status, n.RetryCount, n.FailureReason, n.UpdatedAt, n.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update notification")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// ExistsForOrder reports whether a notification of the type exists for the order.
func (r *PostgreSQLNotificationRepository) ExistsForOrder(
	ctx context.Context,
	orderID uuid.UUID,
	notificationType domain.Type,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE order_id = $1 AND type = $2)`,
		orderID,
		notificationType,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check notification")
	}
	return exists, nil
}

// ListByOrder returns the notifications of an order, oldest first.
func (r *PostgreSQLNotificationRepository) ListByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE order_id = $1 ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list notifications")
	}
	return collect(rows, scanPostgreSQLNotification)
}

// ListRetryable returns Failed notifications still under the retry budget and Pending
// claims last touched before staleBefore, least recently updated first.
func (r *PostgreSQLNotificationRepository) ListRetryable(
	ctx context.Context,
	maxRetries int,
	staleBefore time.Time,
	limit int,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + notificationColumns + ` FROM notifications
			  WHERE (status = $1 AND retry_count < $2)
			     OR (status = $3 AND updated_at < $4)
			  ORDER BY updated_at ASC
			  LIMIT $5`

	rows, err := querier.QueryContext(
		ctx,
		query,
		domain.StatusFailed,
		maxRetries,
		domain.StatusPending,
		staleBefore.UTC(),
		limit,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list retryable notifications")
	}
	return collect(rows, scanPostgreSQLNotification)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLNotification(row scanner) (*domain.Notification, error) {
	var n domain.Notification
	var failureReason sql.NullString
	if err := row.Scan(
		&n.ID,
		&n.OrderID,
		&n.Type,
		&n.Status,
		&n.Message,
		&n.RetryCount,
		&failureReason,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if failureReason.Valid {
		n.FailureReason = &failureReason.String
	}
	return &n, nil
}

func collect(rows *sql.Rows, scan func(scanner) (*domain.Notification, error)) ([]*domain.Notification, error) {
	defer func() {
		_ = rows.Close()
	}()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan notification")
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate notifications")
	}
	return notifications, nil
}
