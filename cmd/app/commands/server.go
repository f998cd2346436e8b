package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/orderflow/internal/app"
	"github.com/allisson/orderflow/internal/config"
)

// component is a long running part of the server process.
type component struct {
	name string
	run  func(ctx context.Context) error
}

// RunServer starts the HTTP API together with the background loops of the configured
// service: the outbox publisher (orders, inventory), the event dispatcher and the
// notification retry sweep (notifications). Blocks until SIGINT/SIGTERM or until any
// component fails, then stops everything within DBConnMaxLifetime.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server",
		slog.String("version", version),
		slog.String("service", cfg.ServiceName),
	)

	defer closeContainer(container, logger)

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	components, err := serviceComponents(container)
	if err != nil {
		return err
	}

	components = append(components, component{name: "api server", run: server.Start})
	if metricsServer != nil {
		components = append(components, component{name: "metrics server", run: metricsServer.Start})
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown := func(ctx context.Context) error {
		var shutdownErrors []error
		if err := server.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(ctx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		return errors.Join(shutdownErrors...)
	}

	return runComponents(ctx, logger, components, shutdown, cfg.DBConnMaxLifetime)
}

// serviceComponents resolves the background loops the configured service runs.
func serviceComponents(container *app.Container) ([]component, error) {
	cfg := container.Config()

	var components []component

	if cfg.ServiceName != config.ServiceNotifications {
		publisher, err := container.OutboxPublisher()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize outbox publisher: %w", err)
		}
		components = append(components, component{name: "outbox publisher", run: publisher.Start})
	}

	dispatcher, err := container.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event dispatcher: %w", err)
	}
	components = append(components, component{name: "event dispatcher", run: dispatcher.Run})

	if cfg.ServiceName == config.ServiceNotifications {
		retry, err := container.NotificationRetryUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize notification retry: %w", err)
		}
		components = append(components, component{name: "notification retry", run: retry.Start})
	}

	return components, nil
}

// runComponents runs every component until ctx is cancelled or one of them stops. The
// first stop cancels the others; shutdown then gets a fresh context bounded by timeout.
// Cancellation is a clean stop and is not reported as an error.
func runComponents(
	ctx context.Context,
	logger *slog.Logger,
	components []component,
	shutdown func(ctx context.Context) error,
	timeout time.Duration,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range components {
		g.Go(func() error {
			defer cancel()
			if err := ignoreCanceled(c.run(gctx)); err != nil {
				logger.Error("component failed, initiating shutdown",
					slog.String("component", c.name),
					slog.Any("error", err),
				)
				return fmt.Errorf("%s error: %w", c.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down components")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		return shutdown(shutdownCtx)
	})

	return g.Wait()
}
