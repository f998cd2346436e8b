// Package domain defines the request idempotency key of the orders service.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/errors"
)

var (
	// ErrKeyNotFound indicates no completed request was stored under the key.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "idempotency key not found")

	// ErrIdempotencyConflict indicates a concurrent request inserted the same key first.
	ErrIdempotencyConflict = errors.Wrap(errors.ErrConflict, "request with the same idempotency key is in progress")
)

// Key records the response of a completed create-order request. The key column is the
// primary key, so a second insert of the same key fails in storage.
type Key struct {
	Key          string    `json:"key"`
	OrderID      uuid.UUID `json:"orderId"`
	ResponseBody string    `json:"responseBody"`
	CreatedAt    time.Time `json:"createdAt"`
}
