// Package repository provides data persistence implementations for products and
// processed order markers.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/inventory/domain"
)

// PostgreSQLProductRepository handles product persistence for PostgreSQL.
type PostgreSQLProductRepository struct {
	db *sql.DB
}

// NewPostgreSQLProductRepository creates a new PostgreSQLProductRepository.
func NewPostgreSQLProductRepository(db *sql.DB) *PostgreSQLProductRepository {
	return &PostgreSQLProductRepository{db: db}
}

// Create inserts a new product.
func (r *PostgreSQLProductRepository) Create(ctx context.Context, product *domain.Product) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO products (id, name, stock, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Stock,
		product.Version,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create product")
	}
	return nil
}

// Get returns the product or ErrProductNotFound.
func (r *PostgreSQLProductRepository) Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, stock, version, created_at, updated_at FROM products WHERE id = $1`

	var product domain.Product
	err := querier.QueryRowContext(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.Stock,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product")
	}
	return &product, nil
}

// List returns products ordered by name with offset pagination, plus the total count.
func (r *PostgreSQLProductRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*domain.Product, int, error) {
	querier := database.GetTx(ctx, r.db)

	var total int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to count products")
	}

	query := `SELECT id, name, stock, version, created_at, updated_at FROM products
			  ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to list products")
	}
	defer func() {
		_ = rows.Close()
	}()

	products := make([]*domain.Product, 0, limit)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Stock,
			&product.Version,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, 0, apperrors.Wrap(err, "failed to scan product")
		}
		products = append(products, &product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to iterate products")
	}
	return products, total, nil
}

// Update writes the stock of a product if nobody changed it since it was read. The
// version check fails with ErrProductVersionConflict; on success product.Version is bumped.
func (r *PostgreSQLProductRepository) Update(ctx context.Context, product *domain.Product) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE products SET stock = $1, updated_at = $2, version = version + 1
			  WHERE id = $3 AND version = $4`

	result, err := querier.ExecContext(ctx, query, product.Stock, product.UpdatedAt, product.ID, product.Version)
	if err != nil {
		return apperrors.Wrap(err, "failed to update product")
	}
	return bumpVersion(result, product)
}

func bumpVersion(result sql.Result, product *domain.Product) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrProductVersionConflict
	}
	product.Version++
	return nil
}
