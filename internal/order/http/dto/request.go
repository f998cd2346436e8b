// Package dto provides data transfer objects for the orders HTTP API.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/orderflow/internal/order/domain"
	customValidation "github.com/allisson/orderflow/internal/validation"
)

// CreateOrderRequest contains the parameters for placing an order.
type CreateOrderRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Validate checks if the create order request is valid.
func (r *CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProductID,
			validation.Required,
			customValidation.UUIDString,
		),
		validation.Field(&r.Quantity,
			validation.Required,
			validation.Min(1),
			validation.Max(domain.MaxQuantity),
		),
	)
}

// ParsedProductID returns the product id. Call it only after Validate succeeded.
func (r *CreateOrderRequest) ParsedProductID() uuid.UUID {
	return uuid.MustParse(r.ProductID)
}

// ValidateIdempotencyKey checks a client supplied Idempotency-Key header value.
func ValidateIdempotencyKey(key string) error {
	return validation.Errors{
		"Idempotency-Key": validation.Validate(key,
			customValidation.NotBlank,
			customValidation.IdempotencyKey,
		),
	}.Filter()
}
