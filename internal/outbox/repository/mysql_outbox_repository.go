package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/outbox/domain"
)

// MySQLOutboxRepository handles outbox message persistence for MySQL.
type MySQLOutboxRepository struct {
	db *sql.DB
}

// NewMySQLOutboxRepository creates a new MySQLOutboxRepository.
func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{
		db: db,
	}
}

// Create inserts a new outbox message.
func (r *MySQLOutboxRepository) Create(ctx context.Context, msg *domain.Message) error {
	querier := database.GetTx(ctx, r.db)

	query := "INSERT INTO outbox_messages (id, type, content, created_at, processed_at, retry_count, error) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?)"

	// Convert UUID to bytes for MySQL BINARY(16)
	id, err := msg.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal outbox message id")
	}

	_, err = querier.ExecContext(ctx, query, id, string(msg.Kind), msg.Content, msg.CreatedAt,
		msg.ProcessedAt, msg.RetryCount, msg.Error)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox message")
	}
	return nil
}

// GetPending locks and returns up to limit unpublished messages below the retry ceiling,
// oldest first, skipping rows locked by another publisher.
func (r *MySQLOutboxRepository) GetPending(
	ctx context.Context,
	limit int,
	maxRetries int,
) ([]*domain.Message, error) {
	querier := database.GetTx(ctx, r.db)

	query := "SELECT id, type, content, created_at, processed_at, retry_count, error " +
		"FROM outbox_messages " +
		"WHERE processed_at IS NULL AND retry_count < ? " +
		"ORDER BY created_at ASC " +
		"LIMIT ? " +
		"FOR UPDATE SKIP LOCKED"

	rows, err := querier.QueryContext(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox messages")
	}
	defer rows.Close() //nolint:errcheck

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var id []byte
		var kind string

		err := rows.Scan(&id, &kind, &msg.Content, &msg.CreatedAt,
			&msg.ProcessedAt, &msg.RetryCount, &msg.Error)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox message")
		}

		if err := msg.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal outbox message id")
		}

		msg.Kind = domain.Kind(kind)
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox messages")
	}

	return messages, nil
}

// Update persists the delivery state of a message.
func (r *MySQLOutboxRepository) Update(ctx context.Context, msg *domain.Message) error {
	querier := database.GetTx(ctx, r.db)

	query := "UPDATE outbox_messages SET processed_at = ?, retry_count = ?, error = ? WHERE id = ?"

	id, err := msg.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal outbox message id")
	}

	_, err = querier.ExecContext(ctx, query, msg.ProcessedAt, msg.RetryCount, msg.Error, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox message")
	}
	return nil
}
