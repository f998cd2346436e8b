// Package http provides HTTP handlers for notifications.
package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/httputil"
	"github.com/allisson/orderflow/internal/notification/http/dto"
	notificationUseCase "github.com/allisson/orderflow/internal/notification/usecase"
)

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	notificationUseCase notificationUseCase.NotificationUseCase
	logger              *slog.Logger
}

// NewNotificationHandler creates a new notification handler with required dependencies.
func NewNotificationHandler(
	notificationUseCase notificationUseCase.NotificationUseCase,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
		logger:              logger,
	}
}

// ListHandler lists the notifications of an order.
// GET /v1/notifications?order_id=<uuid>
func (h *NotificationHandler) ListHandler(c *gin.Context) {
	raw := c.Query("order_id")
	if raw == "" {
		httputil.HandleBadRequestGin(c, errors.New("order_id query parameter is required"), h.logger)
		return
	}

	orderID, err := uuid.Parse(raw)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid order id: %w", err), h.logger)
		return
	}

	notifications, err := h.notificationUseCase.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapNotificationsToListResponse(notifications))
}
