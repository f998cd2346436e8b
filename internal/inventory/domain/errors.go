package domain

import (
	"github.com/allisson/orderflow/internal/errors"
)

var (
	// ErrProductNotFound indicates the product was not found.
	ErrProductNotFound = errors.Wrap(errors.ErrNotFound, "product not found")

	// ErrInvalidQuantity indicates a reservation for a non-positive quantity.
	ErrInvalidQuantity = errors.Wrap(errors.ErrBusinessRule, "reservation quantity must be positive")

	// ErrInvalidProductName indicates a blank or too long product name.
	ErrInvalidProductName = errors.Wrap(errors.ErrInvalidInput, "product name must have between 1 and 200 characters")

	// ErrInvalidStock indicates a negative initial stock.
	ErrInvalidStock = errors.Wrap(errors.ErrInvalidInput, "stock must not be negative")

	// ErrOrderAlreadyProcessed indicates the processed marker for an order already exists.
	ErrOrderAlreadyProcessed = errors.Wrap(errors.ErrConflict, "order already processed")

	// ErrProductVersionConflict indicates a concurrent stock update won the version check.
	ErrProductVersionConflict = errors.Wrap(errors.ErrConcurrencyConflict, "product was modified concurrently")
)
