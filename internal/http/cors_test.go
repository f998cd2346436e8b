package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCORSMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		origins []string
		wantNil bool
	}{
		{"NoOrigins", nil, true},
		{"OnlyInvalid", []string{"shop.example.com", "ftp://files.example.com"}, true},
		{"Valid", []string{"https://shop.example.com", "https://admin.example.com"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := newCORSMiddleware(tt.origins, logger)
			assert.Equal(t, tt.wantNil, middleware == nil)
		})
	}
}

func TestValidOrigins(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	got := validOrigins([]string{
		"https://shop.example.com/",
		"http://localhost:3000",
		"https://admin.example.com/orders",
		"not a url",
		"*",
	}, logger)

	assert.Equal(t, []string{"https://shop.example.com", "http://localhost:3000"}, got)
}

func TestCORS_OrderPreflightAllowsIdempotencyKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	middleware := newCORSMiddleware([]string{"https://shop.example.com"}, logger)
	require.NotNil(t, middleware)

	router := gin.New()
	router.Use(middleware)
	router.POST("/v1/orders", func(c *gin.Context) {
		c.Header("Location", "/v1/orders/1")
		c.Status(http.StatusCreated)
	})

	t.Run("Preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/v1/orders", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Content-Type, Idempotency-Key")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	})

	t.Run("ExposesLocation", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Location")
	})

	t.Run("UnknownOrigin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
