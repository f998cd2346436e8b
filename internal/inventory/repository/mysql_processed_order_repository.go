package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/inventory/domain"
)

// MySQLProcessedOrderRepository stores processed order markers for MySQL.
type MySQLProcessedOrderRepository struct {
	db *sql.DB
}

// NewMySQLProcessedOrderRepository creates a new MySQLProcessedOrderRepository.
func NewMySQLProcessedOrderRepository(db *sql.DB) *MySQLProcessedOrderRepository {
	return &MySQLProcessedOrderRepository{db: db}
}

// Exists reports whether a marker exists for the order.
func (r *MySQLProcessedOrderRepository) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := orderID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal order id")
	}

	var exists bool
	err = querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_orders WHERE order_id = ?)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check processed order")
	}
	return exists, nil
}

// Create inserts the marker.
func (r *MySQLProcessedOrderRepository) Create(ctx context.Context, marker *domain.ProcessedOrder) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO processed_orders (order_id, product_id, processed_at) VALUES (?, ?, ?)`

	orderID, err := marker.OrderID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}
	productID, err := marker.ProductID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	_, err = querier.ExecContext(ctx, query, orderID, productID, marker.ProcessedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrOrderAlreadyProcessed
		}
		return apperrors.Wrap(err, "failed to create processed order")
	}
	return nil
}
