package domain

import (
	"github.com/allisson/orderflow/internal/errors"
)

var (
	// ErrOrderNotFound indicates the order was not found.
	ErrOrderNotFound = errors.Wrap(errors.ErrNotFound, "order not found")

	// ErrInvalidQuantity indicates a quantity outside 1..MaxQuantity.
	ErrInvalidQuantity = errors.Wrap(errors.ErrInvalidInput, "quantity must be between 1 and 1000")

	// ErrInvalidProductID indicates a missing product id.
	ErrInvalidProductID = errors.Wrap(errors.ErrInvalidInput, "product id is required")

	// ErrOrderAlreadyConfirmed indicates an attempt to cancel a confirmed order.
	ErrOrderAlreadyConfirmed = errors.Wrap(errors.ErrBusinessRule, "order is already confirmed")

	// ErrOrderAlreadyCancelled indicates an attempt to confirm a cancelled order.
	ErrOrderAlreadyCancelled = errors.Wrap(errors.ErrBusinessRule, "order is already cancelled")

	// ErrInvalidTransition indicates a transition from an unknown status.
	ErrInvalidTransition = errors.Wrap(errors.ErrBusinessRule, "invalid order status transition")
)
