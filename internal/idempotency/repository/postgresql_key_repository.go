// Package repository provides data persistence implementations for idempotency keys.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/idempotency/domain"
)

// PostgreSQLKeyRepository handles idempotency key persistence for PostgreSQL.
type PostgreSQLKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLKeyRepository creates a new PostgreSQLKeyRepository.
func NewPostgreSQLKeyRepository(db *sql.DB) *PostgreSQLKeyRepository {
	return &PostgreSQLKeyRepository{db: db}
}

// Get returns the stored key or ErrKeyNotFound.
func (r *PostgreSQLKeyRepository) Get(ctx context.Context, key string) (*domain.Key, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT key, order_id, response_body, created_at FROM idempotency_keys WHERE key = $1`

	var k domain.Key
	err := querier.QueryRowContext(ctx, query, key).Scan(&k.Key, &k.OrderID, &k.ResponseBody, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get idempotency key")
	}
	return &k, nil
}

// Create inserts the key. A primary key violation means a concurrent request won the race
// and is reported as ErrIdempotencyConflict.
func (r *PostgreSQLKeyRepository) Create(ctx context.Context, k *domain.Key) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO idempotency_keys (key, order_id, response_body, created_at) VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, k.Key, k.OrderID, k.ResponseBody, k.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		return apperrors.Wrap(err, "failed to create idempotency key")
	}
	return nil
}
