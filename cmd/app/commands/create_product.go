package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/orderflow/internal/inventory/domain"
	"github.com/allisson/orderflow/internal/inventory/http/dto"
	inventoryUseCase "github.com/allisson/orderflow/internal/inventory/usecase"
)

// RunCreateProduct adds a product to the catalog of the inventory service and prints it
// in either text or JSON format.
//
// Requirements: SERVICE_NAME=inventory and a migrated database.
func RunCreateProduct(
	ctx context.Context,
	productUseCase inventoryUseCase.ProductUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	stock int,
	format string,
) error {
	logger.Info("creating product", slog.String("name", name), slog.Int("stock", stock))

	product, err := productUseCase.Create(ctx, name, stock)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	logger.Info("product created", slog.String("product_id", product.ID.String()))

	if format == "json" {
		return outputProductJSON(writer, product)
	}
	outputProductText(writer, product)
	return nil
}

func outputProductText(writer io.Writer, product *domain.Product) {
	_, _ = fmt.Fprintln(writer, "Product created successfully!")
	_, _ = fmt.Fprintf(writer, "Product ID: %s\n", product.ID.String())
	_, _ = fmt.Fprintf(writer, "Name: %s\n", product.Name)
	_, _ = fmt.Fprintf(writer, "Stock: %d\n", product.Stock)
}

func outputProductJSON(writer io.Writer, product *domain.Product) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dto.MapProductToResponse(product)); err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}
	return nil
}
