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

// MySQLNotificationRepository handles notification persistence for MySQL.
type MySQLNotificationRepository struct {
	db *sql.DB
}

// NewMySQLNotificationRepository creates a new MySQLNotificationRepository.
func NewMySQLNotificationRepository(db *sql.DB) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{db: db}
}

// Create inserts a notification, reporting a duplicate (order_id, type) as
// ErrNotificationDuplicate.
func (r *MySQLNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notifications (` + notificationColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := n.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal notification id")
	}
	orderID, err := n.OrderID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		orderID,
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
func (r *MySQLNotificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE notifications SET status = ?, retry_count = ?, failure_reason = ?, updated_at = ?
			  WHERE id = ?`

	id, err := n.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal notification id")
	}

	_, err = querier.ExecContext(ctx, query, n.Status, n.RetryCount, n.FailureReason, n.UpdatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update notification")
	}
	return nil
}

// ExistsForOrder reports whether a notification of the type exists for the order.
func (r *MySQLNotificationRepository) ExistsForOrder(
	ctx context.Context,
	orderID uuid.UUID,
	notificationType domain.Type,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := orderID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal order id")
	}

	var exists bool
	err = querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE order_id = ? AND type = ?)`,
		id,
		notificationType,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check notification")
	}
	return exists, nil
}

// ListByOrder returns the notifications of an order, oldest first.
func (r *MySQLNotificationRepository) ListByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := orderID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal order id")
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE order_id = ? ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list notifications")
	}
	return collect(rows, scanMySQLNotification)
}

// ListRetryable returns Failed notifications still under the retry budget and Pending
// claims last touched before staleBefore, least recently updated first.
func (r *MySQLNotificationRepository) ListRetryable(
	ctx context.Context,
	maxRetries int,
	staleBefore time.Time,
	limit int,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + notificationColumns + ` FROM notifications
			  WHERE (status = ? AND retry_count < ?)
			     OR (status = ? AND updated_at < ?)
			  ORDER BY updated_at ASC
			  LIMIT ?`

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
	return collect(rows, scanMySQLNotification)
}

func scanMySQLNotification(row scanner) (*domain.Notification, error) {
	var n domain.Notification
	var id, orderID []byte
	var failureReason sql.NullString
	if err := row.Scan(
		&id,
		&orderID,
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
	if err := n.ID.UnmarshalBinary(id); err != nil {
		return nil, err
	}
	if err := n.OrderID.UnmarshalBinary(orderID); err != nil {
		return nil, err
	}
	if failureReason.Valid {
		n.FailureReason = &failureReason.String
	}
	return &n, nil
}
