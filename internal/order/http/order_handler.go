// Package http provides HTTP handlers for order placement and lookup.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/httputil"
	"github.com/allisson/orderflow/internal/order/http/dto"
	orderUseCase "github.com/allisson/orderflow/internal/order/usecase"
	customValidation "github.com/allisson/orderflow/internal/validation"
)

// IdempotencyKeyHeader carries the client chosen key of a create order request.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderUseCase orderUseCase.OrderUseCase
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler with required dependencies.
func NewOrderHandler(orderUseCase orderUseCase.OrderUseCase, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		logger:       logger,
	}
}

// CreateHandler places an order.
// POST /v1/orders - Honors the Idempotency-Key header; a key is generated when absent.
// Returns 201 Created for a new order and 200 OK with the original body for a replay.
func (h *OrderHandler) CreateHandler(c *gin.Context) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" {
		key = uuid.NewString()
	} else if err := dto.ValidateIdempotencyKey(key); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.orderUseCase.Create(c.Request.Context(), orderUseCase.CreateInput{
		IdempotencyKey: key,
		ProductID:      req.ParsedProductID(),
		Quantity:       req.Quantity,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.WasDuplicate {
		status = http.StatusOK
	}

	c.Header("Location", "/v1/orders/"+result.OrderID.String())
	c.Header(IdempotencyKeyHeader, key)
	c.Data(status, "application/json; charset=utf-8", result.Response)
}

// GetHandler retrieves an order.
// GET /v1/orders/:id
func (h *OrderHandler) GetHandler(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid order id: %w", err), h.logger)
		return
	}

	order, err := h.orderUseCase.Get(c.Request.Context(), orderID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}
