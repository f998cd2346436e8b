package commands

import (
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestMigrationsTable(t *testing.T) {
	require.Equal(t, "schema_migrations_orders", MigrationsTable("orders"))
	require.Equal(t, "schema_migrations_notifications", MigrationsTable("notifications"))
}

func TestRunMigrations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("invalid-driver", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		err = RunMigrations(logger, db, "sqlite", "orders", "file://migrations/postgresql/orders")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("driver-initialization-fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectQuery("SELECT CURRENT_DATABASE").WillReturnError(io.ErrUnexpectedEOF)

		err = RunMigrations(logger, db, "postgres", "orders", "file://migrations/postgresql/orders")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create migration driver")
	})
}
