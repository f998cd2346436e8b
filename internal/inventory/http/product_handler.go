// Package http provides HTTP handlers for the product catalog.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/httputil"
	"github.com/allisson/orderflow/internal/inventory/http/dto"
	inventoryUseCase "github.com/allisson/orderflow/internal/inventory/usecase"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	productUseCase inventoryUseCase.ProductUseCase
	logger         *slog.Logger
}

// NewProductHandler creates a new product handler with required dependencies.
func NewProductHandler(productUseCase inventoryUseCase.ProductUseCase, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
		logger:         logger,
	}
}

// ListHandler lists products ordered by name.
// GET /v1/products?page=1&page_size=10
func (h *ProductHandler) ListHandler(c *gin.Context) {
	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	products, total, err := h.productUseCase.List(c.Request.Context(), page.Offset(), page.Size)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProductsToListResponse(products, page, total))
}

// GetHandler retrieves a product.
// GET /v1/products/:id
func (h *ProductHandler) GetHandler(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid product id: %w", err), h.logger)
		return
	}

	product, err := h.productUseCase.Get(c.Request.Context(), productID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProductToResponse(product))
}
