package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orderflow/internal/notification/domain"
	"github.com/allisson/orderflow/internal/notification/http/dto"
	"github.com/allisson/orderflow/internal/notification/usecase/mocks"
)

func setupTestHandler(t *testing.T) (*NotificationHandler, *mocks.MockNotificationUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockNotificationUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewNotificationHandler(mockUseCase, logger), mockUseCase
}

func createTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestNotificationHandler_ListHandler(t *testing.T) {
	orderID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		n, err := domain.NewNotification(orderID, domain.TypeOrderConfirmed, "confirmed", time.Now())
		require.NoError(t, err)
		mockUseCase.On("ListByOrder", mock.Anything, orderID).Return([]*domain.Notification{n}, nil).Once()

		c, w := createTestContext("/v1/notifications?order_id=" + orderID.String())
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.ListNotificationsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, "OrderConfirmed", response.Data[0].Type)
		assert.Equal(t, "Pending", response.Data[0].Status)
		assert.Nil(t, response.Data[0].FailureReason)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("EmptyListIsArray", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("ListByOrder", mock.Anything, orderID).Return(nil, nil).Once()

		c, w := createTestContext("/v1/notifications?order_id=" + orderID.String())
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[]}`, w.Body.String())
	})

	t.Run("MissingOrderID", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext("/v1/notifications")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "ListByOrder", mock.Anything, mock.Anything)
	})

	t.Run("InvalidOrderID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext("/v1/notifications?order_id=nope")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UseCaseError", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("ListByOrder", mock.Anything, orderID).Return(nil, assert.AnError).Once()

		c, w := createTestContext("/v1/notifications?order_id=" + orderID.String())
		handler.ListHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
