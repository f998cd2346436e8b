// Package repository provides data persistence implementations for orders.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/order/domain"
)

// PostgreSQLOrderRepository handles order persistence for PostgreSQL.
type PostgreSQLOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrderRepository creates a new PostgreSQLOrderRepository.
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{db: db}
}

// Create inserts a new order.
func (r *PostgreSQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO orders (id, product_id, quantity, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		order.ID,
		order.ProductID,
		order.Quantity,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}
	return nil
}

// Get returns the order or ErrOrderNotFound.
func (r *PostgreSQLOrderRepository) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, product_id, quantity, status, created_at, updated_at FROM orders WHERE id = $1`

	var order domain.Order
	err := querier.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.ProductID,
		&order.Quantity,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order")
	}
	return &order, nil
}

// Update persists the status of an order.
func (r *PostgreSQLOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, order.Status, order.UpdatedAt, order.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order")
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
