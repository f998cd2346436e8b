// Package dto provides data transfer objects for the notifications HTTP API.
package dto

import (
	"time"

	"github.com/allisson/orderflow/internal/notification/domain"
)

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	RetryCount    int       `json:"retryCount"`
	FailureReason *string   `json:"failureReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ListNotificationsResponse wraps the notifications of one order.
type ListNotificationsResponse struct {
	Data []NotificationResponse `json:"data"`
}

// MapNotificationToResponse converts a domain notification to an API response.
func MapNotificationToResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID.String(),
		OrderID:       n.OrderID.String(),
		Type:          string(n.Type),
		Status:        string(n.Status),
		Message:       n.Message,
		RetryCount:    n.RetryCount,
		FailureReason: n.FailureReason,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

// MapNotificationsToListResponse converts notifications to an API response.
func MapNotificationsToListResponse(notifications []*domain.Notification) ListNotificationsResponse {
	data := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		data = append(data, MapNotificationToResponse(n))
	}
	return ListNotificationsResponse{Data: data}
}
