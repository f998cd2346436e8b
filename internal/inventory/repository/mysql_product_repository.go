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

// MySQLProductRepository handles product persistence for MySQL.
type MySQLProductRepository struct {
	db *sql.DB
}

// NewMySQLProductRepository creates a new MySQLProductRepository.
func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

// Create inserts a new product.
func (r *MySQLProductRepository) Create(ctx context.Context, product *domain.Product) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO products (id, name, stock, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := product.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (r *MySQLProductRepository) Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, stock, version, created_at, updated_at FROM products WHERE id = ?`

	id, err := productID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal product id")
	}

	product, err := scanMySQLProduct(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product")
	}
	return product, nil
}

// List returns products ordered by name with offset pagination, plus the total count.
func (r *MySQLProductRepository) List(ctx context.Context, offset, limit int) ([]*domain.Product, int, error) {
	querier := database.GetTx(ctx, r.db)

	var total int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to count products")
	}

	query := `SELECT id, name, stock, version, created_at, updated_at FROM products
			  ORDER BY name ASC, id ASC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to list products")
	}
	defer func() {
		_ = rows.Close()
	}()

	products := make([]*domain.Product, 0, limit)
	for rows.Next() {
		product, err := scanMySQLProduct(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(err, "failed to scan product")
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to iterate products")
	}
	return products, total, nil
}

// Update writes the stock of a product guarded by its version.
func (r *MySQLProductRepository) Update(ctx context.Context, product *domain.Product) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE products SET stock = ?, updated_at = ?, version = version + 1
			  WHERE id = ? AND version = ?`

	id, err := product.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	result, err := querier.ExecContext(ctx, query, product.Stock, product.UpdatedAt, id, product.Version)
	if err != nil {
		return apperrors.Wrap(err, "failed to update product")
	}
	return bumpVersion(result, product)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMySQLProduct(row scanner) (*domain.Product, error) {
	var product domain.Product
	var id []byte
	if err := row.Scan(
		&id,
		&product.Name,
		&product.Stock,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := product.ID.UnmarshalBinary(id); err != nil {
		return nil, err
	}
	return &product, nil
}
