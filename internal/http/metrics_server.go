package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/orderflow/internal/metrics"
)

// MetricsServer serves the Prometheus scrape endpoint of one service on its own port, so
// scrapes never compete with order traffic.
type MetricsServer struct {
	server  *http.Server
	service string
	logger  *slog.Logger
}

// NewMetricsServer registers /metrics and a /health probe labelled with service. Scrapes
// are not request-logged.
func NewMetricsServer(
	host string,
	port int,
	service string,
	logger *slog.Logger,
	provider *metrics.Provider,
) *MetricsServer {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(provider.Handler()))

	probes := router.Group("/", CustomLoggerMiddleware(logger))
	probes.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": service})
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		service: service,
		logger:  logger.With(slog.String("server", "metrics")),
	}
}

// GetHandler returns the router for tests.
func (s *MetricsServer) GetHandler() http.Handler {
	return s.server.Handler
}

// Start blocks until the listener fails or Shutdown is called.
func (s *MetricsServer) Start(ctx context.Context) error {
	s.logger.Info("starting metrics server",
		slog.String("addr", s.server.Addr),
		slog.String("service", s.service),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server on %s: %w", s.server.Addr, err)
	}
	return nil
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}
