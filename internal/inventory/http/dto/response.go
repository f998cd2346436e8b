// Package dto provides data transfer objects for the products HTTP API.
package dto

import (
	"time"

	"github.com/allisson/orderflow/internal/httputil"
	"github.com/allisson/orderflow/internal/inventory/domain"
)

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListProductsResponse is one page of products.
type ListProductsResponse struct {
	Data       []ProductResponse `json:"data"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalCount int               `json:"totalCount"`
	TotalPages int               `json:"totalPages"`
}

// MapProductToResponse converts a domain product to an API response.
func MapProductToResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        product.ID.String(),
		Name:      product.Name,
		Stock:     product.Stock,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

// MapProductsToListResponse converts a page of products to an API response.
func MapProductsToListResponse(products []*domain.Product, page httputil.Page, total int) ListProductsResponse {
	data := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		data = append(data, MapProductToResponse(product))
	}

	return ListProductsResponse{
		Data:       data,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalCount: total,
		TotalPages: (total + page.Size - 1) / page.Size,
	}
}
