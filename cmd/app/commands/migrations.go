package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migrateDatabase "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/orderflow/internal/database"
)

// MigrationsTable returns the version table of a service. Services may share one database
// server, so each tracks its schema version separately.
func MigrationsTable(service string) string {
	return "schema_migrations_" + service
}

// RunMigrations applies every pending migration of one service from sourceURL
// (for example file://migrations/postgresql/orders). Returns nil when there is nothing to
// apply. The migrate instance takes ownership of db and closes it on return.
func RunMigrations(logger *slog.Logger, db *sql.DB, driver, service, sourceURL string) error {
	logger.Info("running database migrations",
		slog.String("driver", driver),
		slog.String("service", service),
		slog.String("source", sourceURL),
	)

	instance, err := migrationDriver(db, driver, MigrationsTable(service))
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, driver, instance)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

func migrationDriver(db *sql.DB, driver, table string) (migrateDatabase.Driver, error) {
	switch driver {
	case database.DriverPostgres:
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	case database.DriverMySQL:
		return mysql.WithInstance(db, &mysql.Config{MigrationsTable: table})
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}
