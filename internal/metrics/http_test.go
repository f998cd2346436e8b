package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success_RecordWithRoutePattern", func(t *testing.T) {
		provider, err := NewProvider("test_app", "orders")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, provider.Shutdown(context.Background()))
		}()

		router := gin.New()
		router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "test_app"))
		router.GET("/v1/orders/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
		})
		router.POST("/v1/orders", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"status": "Pending"})
		})

		for _, id := range []string{"a", "b", "c"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/orders/"+id, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/orders", nil))
		assert.Equal(t, http.StatusCreated, w.Code)

		output := scrape(t, provider)
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`method="GET".*path="/v1/orders/:id".*status_code="200"`, `3`)
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`method="POST".*path="/v1/orders".*status_code="201"`, `1`)
	})

	t.Run("Success_UnmatchedRoute", func(t *testing.T) {
		provider, err := NewProvider("test_app", "orders")
		require.NoError(t, err)

		router := gin.New()
		router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "test_app"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPMetricsMiddleware_ProbesAndInFlight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("probe_test", "orders")
	require.NoError(t, err)

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "probe_test"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/v1/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, target := range []string{"/health", "/health", "/v1/orders/7"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	output := scrape(t, provider)
	assert.NotRegexp(t, `probe_test_http_requests_total\{[^}]*path="/health"`, output)
	assertBizMetricLine(t, output, `probe_test_http_requests_total`,
		`path="/v1/orders/:id".*status_code="404"`, `1`)
	assertBizMetricLine(t, output, `probe_test_http_requests_in_flight`, ``, `0`)
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "RoutePattern", input: "/v1/orders/:id", expected: "/v1/orders/:id"},
		{name: "EmptyPath", input: "", expected: "unknown"},
		{name: "RootPath", input: "/", expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizePath(tt.input))
		})
	}
}
