// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/allisson/orderflow/internal/config"
	"github.com/allisson/orderflow/internal/database"
	"github.com/allisson/orderflow/internal/http"
	"github.com/allisson/orderflow/internal/messaging"
	"github.com/allisson/orderflow/internal/metrics"
)

// Container holds all application dependencies and provides methods to access them.
// Components are created on first access and only for the configured service.
type Container struct {
	config *config.Config

	// ctx bounds background helpers owned by the container. Cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	// Infrastructure
	clock           clockwork.Clock
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	business        metrics.BusinessMetrics
	reliability     metrics.ReliabilityMetrics
	bus             messaging.Bus
	redisClient     *redis.Client

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Service components, grouped by file
	outbox        outboxComponents
	orders        orderComponents
	inventory     inventoryComponents
	notifications notificationComponents

	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessInit        sync.Once
	reliabilityInit     sync.Once
	busInit             sync.Once
	redisClientInit     sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config:     cfg,
		ctx:        ctx,
		cancel:     cancel,
		clock:      clockwork.NewRealClock(),
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Clock returns the clock shared by every time dependent component.
func (c *Container) Clock() clockwork.Clock {
	return c.clock
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the service database connection.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		c.storeErr("db", err)
	})
	return c.db, c.loadErr("db", err)
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		c.storeErr("txManager", err)
	})
	return c.txManager, c.loadErr("txManager", err)
}

// MetricsProvider returns the OpenTelemetry provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace, c.config.ServiceName)
		c.storeErr("metricsProvider", err)
	})
	return c.metricsProvider, c.loadErr("metricsProvider", err)
}

// BusinessMetrics returns use case metrics, or a no-op implementation when disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessInit.Do(func() {
		var provider *metrics.Provider
		if provider, err = c.MetricsProvider(); err != nil {
			c.storeErr("businessMetrics", err)
			return
		}
		if provider == nil {
			c.business = metrics.NewNoOpBusinessMetrics()
			return
		}
		c.business, err = metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		c.storeErr("businessMetrics", err)
	})
	return c.business, c.loadErr("businessMetrics", err)
}

// ReliabilityMetrics returns pipeline metrics, or a no-op implementation when disabled.
func (c *Container) ReliabilityMetrics() (metrics.ReliabilityMetrics, error) {
	var err error
	c.reliabilityInit.Do(func() {
		var provider *metrics.Provider
		if provider, err = c.MetricsProvider(); err != nil {
			c.storeErr("reliabilityMetrics", err)
			return
		}
		if provider == nil {
			c.reliability = metrics.NewNoOpReliabilityMetrics()
			return
		}
		c.reliability, err = metrics.NewReliabilityMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		c.storeErr("reliabilityMetrics", err)
	})
	return c.reliability, c.loadErr("reliabilityMetrics", err)
}

// RedisClient returns the Redis client used by the idempotency response cache.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		c.storeErr("redisClient", err)
	})
	return c.redisClient, c.loadErr("redisClient", err)
}

// HTTPServer returns the API server with the handlers of the configured service.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		c.storeErr("httpServer", err)
	})
	return c.httpServer, c.loadErr("httpServer", err)
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		var provider *metrics.Provider
		provider, err = c.MetricsProvider()
		if err != nil || provider == nil {
			c.storeErr("metricsServer", err)
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.config.ServiceName,
			c.Logger(),
			provider,
		)
	})
	return c.metricsServer, c.loadErr("metricsServer", err)
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.bus != nil {
		if err := c.bus.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("message bus close: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

func (c *Container) storeErr(name string, err error) {
	if err != nil {
		c.initErrors[name] = err
	}
}

// loadErr returns the error of the current call or the one stored by the first call.
func (c *Container) loadErr(name string, err error) error {
	if err != nil {
		return err
	}
	return c.initErrors[name]
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler).With(slog.String("service", c.config.ServiceName))
}

func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(c.ctx, database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// selectByDriver returns the PostgreSQL or MySQL variant of a repository.
func selectByDriver[T any](driver string, postgres, mysql func() T) (T, error) {
	switch driver {
	case database.DriverPostgres:
		return postgres(), nil
	case database.DriverMySQL:
		return mysql(), nil
	default:
		var zero T
		return zero, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	var handlers http.Handlers
	switch c.config.ServiceName {
	case config.ServiceOrders:
		if handlers.Order, err = c.OrderHandler(); err != nil {
			return nil, err
		}
	case config.ServiceInventory:
		if handlers.Product, err = c.ProductHandler(); err != nil {
			return nil, err
		}
	case config.ServiceNotifications:
		if handlers.Notification, err = c.NotificationHandler(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown service: %s", c.config.ServiceName)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(c.ctx, c.config, handlers, provider)
	return server, nil
}
