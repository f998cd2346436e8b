// Package domain defines the Notification aggregate and its delivery status machine.
package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxMessageLength matches the width of the notifications.message column, in characters.
const MaxMessageLength = 1000

// Type is the kind of customer notification. At most one exists per order and type.
type Type string

const (
	TypeOrderConfirmed Type = "OrderConfirmed"
	TypeOrderRejected  Type = "OrderRejected"
)

// Valid reports whether t is a known notification type.
func (t Type) Valid() bool {
	return t == TypeOrderConfirmed || t == TypeOrderRejected
}

// Status is the delivery state of a notification.
type Status string

const (
	StatusPending Status = "Pending"
	StatusSent    Status = "Sent"
	StatusFailed  Status = "Failed"
)

// Notification is a message sent to the customer about an order.
type Notification struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Type          Type
	Status        Status
	Message       string
	RetryCount    int
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewNotification creates a Pending notification.
func NewNotification(orderID uuid.UUID, notificationType Type, message string, now time.Time) (*Notification, error) {
	if orderID == uuid.Nil {
		return nil, ErrInvalidOrderID
	}
	if !notificationType.Valid() {
		return nil, ErrInvalidType
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	message = truncateRunes(message, MaxMessageLength)

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Notification{
		ID:        id,
		OrderID:   orderID,
		Type:      notificationType,
		Status:    StatusPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// truncateRunes cuts s to at most limit characters without splitting a multibyte rune.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	offset := 0
	for range limit {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return s[:offset]
}

// MarkSent records a successful delivery. Sent is terminal.
func (n *Notification) MarkSent(now time.Time) error {
	if n.Status == StatusSent {
		return ErrNotificationAlreadySent
	}
	n.Status = StatusSent
	n.FailureReason = nil
	n.UpdatedAt = now.UTC()
	return nil
}

// MarkFailed records a failed delivery and counts it against the retry budget.
func (n *Notification) MarkFailed(reason string, now time.Time) error {
	if n.Status == StatusSent {
		return ErrNotificationAlreadySent
	}
	n.Status = StatusFailed
	n.FailureReason = &reason
	n.RetryCount++
	n.UpdatedAt = now.UTC()
	return nil
}

// ResetForRetry prepares a Failed notification, or a Pending claim whose delivery outcome
// was never recorded, for another attempt. Sent notifications are never retried.
func (n *Notification) ResetForRetry(now time.Time) error {
	if n.Status == StatusSent {
		return ErrNotificationNotFailed
	}
	n.Status = StatusPending
	n.UpdatedAt = now.UTC()
	return nil
}

// ConfirmedMessage renders the OrderConfirmed text.
func ConfirmedMessage(orderID, productID uuid.UUID, quantity, remainingStock int) string {
	return fmt.Sprintf(
		"Your order %s has been confirmed! %d unit(s) of product %s reserved. Remaining stock: %d.",
		orderID, quantity, productID, remainingStock,
	)
}

// RejectedMessage renders the OrderRejected text.
func RejectedMessage(orderID, productID uuid.UUID, requested, available int) string {
	return fmt.Sprintf(
		"Your order %s is REJECTED. Product %s has insufficient stock. Requested: %d, Available: %d.",
		orderID, productID, requested, available,
	)
}
