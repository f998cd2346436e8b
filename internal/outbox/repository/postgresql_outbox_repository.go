// Package repository provides data persistence implementations for outbox messages.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/outbox/domain"
)

// PostgreSQLOutboxRepository handles outbox message persistence for PostgreSQL.
type PostgreSQLOutboxRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxRepository creates a new PostgreSQLOutboxRepository.
func NewPostgreSQLOutboxRepository(db *sql.DB) *PostgreSQLOutboxRepository {
	return &PostgreSQLOutboxRepository{
		db: db,
	}
}

// Create inserts a new outbox message.
func (r *PostgreSQLOutboxRepository) Create(ctx context.Context, msg *domain.Message) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_messages (id, type, content, created_at, processed_at, retry_count, error)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(ctx, query, msg.ID, string(msg.Kind), msg.Content, msg.CreatedAt,
		msg.ProcessedAt, msg.RetryCount, msg.Error)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox message")
	}
	return nil
}

// GetPending locks and returns up to limit unpublished messages below the retry ceiling,
// oldest first. Rows locked by another publisher are skipped. Must run inside a
// transaction for the locks to be held until the batch is persisted.
func (r *PostgreSQLOutboxRepository) GetPending(
	ctx context.Context,
	limit int,
	maxRetries int,
) ([]*domain.Message, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, type, content, created_at, processed_at, retry_count, error
			  FROM outbox_messages
			  WHERE processed_at IS NULL AND retry_count < $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox messages")
	}
	defer rows.Close() //nolint:errcheck

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var kind string

		err := rows.Scan(&msg.ID, &kind, &msg.Content, &msg.CreatedAt,
			&msg.ProcessedAt, &msg.RetryCount, &msg.Error)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox message")
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
func (r *PostgreSQLOutboxRepository) Update(ctx context.Context, msg *domain.Message) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_messages
			  SET processed_at = $1, retry_count = $2, error = $3
			  WHERE id = $4`

	_, err := querier.ExecContext(ctx, query, msg.ProcessedAt, msg.RetryCount, msg.Error, msg.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox message")
	}
	return nil
}
