// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/orderflow/cmd/app/commands"
	"github.com/allisson/orderflow/internal/app"
	"github.com/allisson/orderflow/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Order placement, stock reservation and customer notifications",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server and the background workers of SERVICE_NAME",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run the database migrations of SERVICE_NAME",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					container := app.NewContainer(cfg)
					defer func() { _ = container.Shutdown(ctx) }()

					db, err := container.DB()
					if err != nil {
						return err
					}

					return commands.RunMigrations(
						container.Logger(),
						db,
						cfg.DBDriver,
						cfg.ServiceName,
						cfg.MigrationsPath(),
					)
				},
			},
			{
				Name:  "create-product",
				Usage: "Add a product to the inventory catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Product name",
					},
					&cli.IntFlag{
						Name:     "stock",
						Aliases:  []string{"s"},
						Required: true,
						Usage:    "Initial stock",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container, err := serviceContainer(config.ServiceInventory)
					if err != nil {
						return err
					}
					defer func() { _ = container.Shutdown(ctx) }()

					productUseCase, err := container.ProductUseCase()
					if err != nil {
						return err
					}

					return commands.RunCreateProduct(
						ctx,
						productUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("name"),
						int(cmd.Int("stock")),
						cmd.String("format"),
					)
				},
			},
			{
				Name:  "publish-outbox",
				Usage: "Publish one batch of pending outbox messages",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					if cfg.ServiceName == config.ServiceNotifications {
						return fmt.Errorf("service %q has no outbox", cfg.ServiceName)
					}

					container := app.NewContainer(cfg)
					defer func() { _ = container.Shutdown(ctx) }()

					publisher, err := container.OutboxPublisher()
					if err != nil {
						return err
					}

					return commands.RunPublishOutbox(ctx, publisher, container.Logger())
				},
			},
			{
				Name:  "retry-notifications",
				Usage: "Run one retry sweep over failed notifications",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container, err := serviceContainer(config.ServiceNotifications)
					if err != nil {
						return err
					}
					defer func() { _ = container.Shutdown(ctx) }()

					retryUseCase, err := container.NotificationRetryUseCase()
					if err != nil {
						return err
					}

					return commands.RunRetryNotifications(
						ctx,
						retryUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("format"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

// serviceContainer builds a container and checks the command runs against the service
// that owns the data it touches.
func serviceContainer(service string) (*app.Container, error) {
	cfg := config.Load()
	if cfg.ServiceName != service {
		return nil, fmt.Errorf("command requires SERVICE_NAME=%s, got %q", service, cfg.ServiceName)
	}
	return app.NewContainer(cfg), nil
}
