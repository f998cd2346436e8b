package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/idempotency/domain"
)

// MySQLKeyRepository handles idempotency key persistence for MySQL.
type MySQLKeyRepository struct {
	db *sql.DB
}

// NewMySQLKeyRepository creates a new MySQLKeyRepository.
func NewMySQLKeyRepository(db *sql.DB) *MySQLKeyRepository {
	return &MySQLKeyRepository{db: db}
}

// Get returns the stored key or ErrKeyNotFound.
func (r *MySQLKeyRepository) Get(ctx context.Context, key string) (*domain.Key, error) {
	querier := database.GetTx(ctx, r.db)

	query := "SELECT `key`, order_id, response_body, created_at FROM idempotency_keys WHERE `key` = ?"

	var k domain.Key
	var orderID []byte
	err := querier.QueryRowContext(ctx, query, key).Scan(&k.Key, &orderID, &k.ResponseBody, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get idempotency key")
	}

	if err := k.OrderID.UnmarshalBinary(orderID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal order id")
	}
	return &k, nil
}

// Create inserts the key, reporting a duplicate entry as ErrIdempotencyConflict.
func (r *MySQLKeyRepository) Create(ctx context.Context, k *domain.Key) error {
	querier := database.GetTx(ctx, r.db)

	query := "INSERT INTO idempotency_keys (`key`, order_id, response_body, created_at) VALUES (?, ?, ?, ?)"

	orderID, err := k.OrderID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	_, err = querier.ExecContext(ctx, query, k.Key, orderID, k.ResponseBody, k.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		return apperrors.Wrap(err, "failed to create idempotency key")
	}
	return nil
}
