package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// runMigrations applies the dialect's embedded migrations.
// It uses a separate connection because closing the migrate instance
// closes the database it wraps.
func runMigrations(dialect Dialect, cfg Config) error {
	migrateDB, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := dialect.MigrationDriver(migrateDB)
	if err != nil {
		return fmt.Errorf("create %s driver: %w", dialect.Name(), err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+dialect.Name())
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect.Name(), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		slog.Debug("Migrations applied", "dialect", dialect.Name(), "version", version, "dirty", dirty)
	}
	return nil
}
