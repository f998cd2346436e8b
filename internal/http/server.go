// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/orderflow/internal/config"
	inventoryHTTP "github.com/allisson/orderflow/internal/inventory/http"
	"github.com/allisson/orderflow/internal/metrics"
	notificationHTTP "github.com/allisson/orderflow/internal/notification/http"
	orderHTTP "github.com/allisson/orderflow/internal/order/http"
)

// Handlers groups the API handlers of one service. Nil handlers are not routed.
type Handlers struct {
	Order        *orderHTTP.OrderHandler
	Product      *inventoryHTTP.ProductHandler
	Notification *notificationHTTP.NotificationHandler
}

// Server represents the HTTP server
type Server struct {
	db     *sql.DB
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine for the service. The limiterCtx bounds the lifetime of
// the rate limiter cleanup goroutine.
func (s *Server) SetupRouter(
	limiterCtx context.Context,
	cfg *config.Config,
	handlers Handlers,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cfg.CORSEnabled {
		if corsMiddleware := newCORSMiddleware(cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
			router.Use(corsMiddleware)
		}
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	if handlers.Order != nil {
		orders := v1.Group("/orders")
		create := []gin.HandlerFunc{handlers.Order.CreateHandler}
		if cfg.RateLimitEnabled {
			create = append([]gin.HandlerFunc{
				RateLimitMiddleware(limiterCtx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger),
			}, create...)
		}
		orders.POST("", create...)
		orders.GET("/:id", handlers.Order.GetHandler)
	}

	if handlers.Product != nil {
		products := v1.Group("/products")
		products.GET("", handlers.Product.ListHandler)
		products.GET("/:id", handlers.Product.GetHandler)
	}

	if handlers.Notification != nil {
		v1.GET("/notifications", handlers.Notification.ListHandler)
	}

	s.router = router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only while the service database answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	database := "ok"
	if s.db == nil {
		database = "error"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.Any("error", err))
			database = "error"
		}
	}

	if database != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": database},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": database},
	})
}
