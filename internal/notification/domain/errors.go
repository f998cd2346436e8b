package domain

import (
	"github.com/allisson/orderflow/internal/errors"
)

var (
	// ErrNotificationNotFound indicates the notification was not found.
	ErrNotificationNotFound = errors.Wrap(errors.ErrNotFound, "notification not found")

	// ErrInvalidOrderID indicates a missing order id.
	ErrInvalidOrderID = errors.Wrap(errors.ErrInvalidInput, "order id is required")

	// ErrEmptyMessage indicates a blank notification message.
	ErrEmptyMessage = errors.Wrap(errors.ErrInvalidInput, "notification message cannot be empty")

	// ErrInvalidType indicates an unknown notification type.
	ErrInvalidType = errors.Wrap(errors.ErrInvalidInput, "unknown notification type")

	// ErrNotificationAlreadySent indicates an attempt to change a sent notification.
	ErrNotificationAlreadySent = errors.Wrap(errors.ErrBusinessRule, "notification has already been sent")

	// ErrNotificationNotFailed indicates a retry reset of a notification that was already sent.
	ErrNotificationNotFailed = errors.Wrap(errors.ErrBusinessRule, "sent notifications cannot be retried")

	// ErrNotificationDuplicate indicates a notification of the same type already exists for the order.
	ErrNotificationDuplicate = errors.Wrap(errors.ErrConflict, "notification already exists for order")
)
