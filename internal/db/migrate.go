package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
)

// MigrationsTable is the table golang-migrate uses to track applied migrations.
const MigrationsTable = "schema_migrations"

// MigrationHandler wraps a migrate.Migrate instance to route its internal log output through slog.
type MigrationHandler struct {
	Migrate *migrate.Migrate
}

// Printf implements migrate's logger interface.
func (h *MigrationHandler) Printf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...))
}

// Verbose implements migrate's logger interface.
func (h *MigrationHandler) Verbose() bool { return true }

// NewMigrationHandler builds a migration handler bound to the given Postgres config and migration
// source (typically an embedded SQL directory under internal/db/migrations).
func NewMigrationHandler(cfg PgConfig, src source.Driver) (*MigrationHandler, error) {
	connStr := fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=disable&x-migrations-table=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, MigrationsTable)

	m, err := migrate.NewWithSourceInstance("iofs", src, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	h := &MigrationHandler{Migrate: m}
	m.Log = h
	return h, nil
}

// Up applies all pending migrations. "No change" is treated as success.
func (h *MigrationHandler) Up() error {
	if err := h.Migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
