package dto

import (
	"time"

	"github.com/allisson/orderflow/internal/order/domain"
)

// OrderResponse represents an order in API responses. Its shape matches domain.Snapshot,
// which is what a create request returns and what duplicate requests replay.
type OrderResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MapOrderToResponse converts a domain order to an API response.
func MapOrderToResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:        order.ID.String(),
		ProductID: order.ProductID.String(),
		Quantity:  order.Quantity,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}
