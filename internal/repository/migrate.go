package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" //revive:disable:blank-imports
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/folio/backend/migrations"
)

// IsPostgresURL reports whether databaseURL addresses a PostgreSQL server.
// Anything else is treated as a sqlite database path.
func IsPostgresURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

// NewMigrator returns a migrate instance for databaseURL using the embedded
// migrations of the matching dialect. The caller must Close it.
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	dir := migrations.DirSQLite
	target := "sqlite://" + SQLiteDSN(databaseURL)
	if IsPostgresURL(databaseURL) {
		dir = migrations.DirPostgres
		// The pgx/v5 driver registers itself under the pgx5 scheme.
		target = "pgx5://" + databaseURL[strings.Index(databaseURL, "://")+3:]
	}

	src, err := iofs.New(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

// MigrateUp applies every pending migration. Having nothing to apply is not an error.
func MigrateUp(m *migrate.Migrate) error {
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("no database migrations to apply")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	slog.Info("database migrations applied")
	return nil
}

// MigrateSQLite applies the sqlite migrations on an already open connection.
// The migrator is not closed because that would close db.
func MigrateSQLite(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, migrations.DirSQLite)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	m.Log = migrateLogger{}
	return MigrateUp(m)
}

// migrateLogger routes golang-migrate output into slog.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	slog.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (migrateLogger) Verbose() bool { return false }
