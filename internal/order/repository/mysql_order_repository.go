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

// MySQLOrderRepository handles order persistence for MySQL. UUIDs are stored as BINARY(16).
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQLOrderRepository.
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// Create inserts a new order.
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO orders (id, product_id, quantity, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}
	productID, err := order.ProductID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		productID,
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
func (r *MySQLOrderRepository) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, product_id, quantity, status, created_at, updated_at FROM orders WHERE id = ?`

	id, err := orderID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal order id")
	}

	var order domain.Order
	var rawID, rawProductID []byte
	err = querier.QueryRowContext(ctx, query, id).Scan(
		&rawID,
		&rawProductID,
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

	if err := order.ID.UnmarshalBinary(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal order id")
	}
	if err := order.ProductID.UnmarshalBinary(rawProductID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal product id")
	}
	return &order, nil
}

// Update persists the status of an order.
func (r *MySQLOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`

	id, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	result, err := querier.ExecContext(ctx, query, order.Status, order.UpdatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order")
	}
	return requireOneRow(result)
}
