package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/inventory/domain"
)

// PostgreSQLProcessedOrderRepository stores processed order markers for PostgreSQL.
type PostgreSQLProcessedOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLProcessedOrderRepository creates a new PostgreSQLProcessedOrderRepository.
func NewPostgreSQLProcessedOrderRepository(db *sql.DB) *PostgreSQLProcessedOrderRepository {
	return &PostgreSQLProcessedOrderRepository{db: db}
}

// Exists reports whether a marker exists for the order.
func (r *PostgreSQLProcessedOrderRepository) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_orders WHERE order_id = $1)`,
		orderID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check processed order")
	}
	return exists, nil
}

// Create inserts the marker. A second marker for the same order fails with
// ErrOrderAlreadyProcessed.
func (r *PostgreSQLProcessedOrderRepository) Create(ctx context.Context, marker *domain.ProcessedOrder) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO processed_orders (order_id, product_id, processed_at) VALUES ($1, $2, $3)`

	_, err := querier.ExecContext(ctx, query, marker.OrderID, marker.ProductID, marker.ProcessedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrOrderAlreadyProcessed
		}
		return apperrors.Wrap(err, "failed to create processed order")
	}
	return nil
}
