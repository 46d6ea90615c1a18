package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/folio/backend/internal/config"
	"github.com/folio/backend/internal/logging"
	"github.com/folio/backend/internal/repository"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  (default), up   apply pending migrations
  down            roll back the most recent migration
  reset           roll back every migration, then apply them all again
  version         print the current schema version`)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Getenv("LOG_LEVEL"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = config.DefaultDatabaseURL
	}

	m, err := repository.NewMigrator(dbURL)
	if err != nil {
		logging.Fatal("open migrator failed", "error", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("close migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "", "up":
		if err := repository.MigrateUp(m); err != nil {
			logging.Fatal("migrate up failed", "error", err)
		}
	case "down":
		if err := ignoreNoChange(m.Steps(-1)); err != nil {
			logging.Fatal("migrate down failed", "error", err)
		}
		slog.Info("rolled back one migration")
	case "reset":
		if err := ignoreNoChange(m.Down()); err != nil {
			logging.Fatal("migrate down failed", "error", err)
		}
		slog.Info("all migrations rolled back")
		if err := repository.MigrateUp(m); err != nil {
			logging.Fatal("migrate up failed", "error", err)
		}
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if err != nil {
			logging.Fatal("read version failed", "error", err)
		}
		fmt.Printf("version %d (dirty=%t)\n", version, dirty)
	default:
		usage()
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
