package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// sqliteTimeLayouts are the text forms modernc.org/sqlite writes for
// time.Time values. Aggregates such as MAX(created_at) come back as text.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// SQLiteDSN normalises a DATABASE_URL for the sqlite driver: the sqlite://
// scheme is stripped and the sqlite time format is forced so that stored
// timestamps sort lexicographically.
func SQLiteDSN(databaseURL string) string {
	dsn := strings.TrimPrefix(databaseURL, "sqlite://")
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_time_format=sqlite"
	}
	return dsn + "?_time_format=sqlite"
}

// OpenSQLite connects to the sqlite database and applies all migrations.
func OpenSQLite(databaseURL string) (*sqlx.DB, error) {
	dsn := SQLiteDSN(databaseURL)
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite doesn't support concurrent writes; a single connection also
	// keeps in-memory databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := MigrateSQLite(db.DB); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("close sqlite after migration failure", "error", closeErr)
		}
		return nil, err
	}
	return db, nil
}

// sqlitePinger adapts *sqlx.DB to the DB interface.
type sqlitePinger struct {
	db *sqlx.DB
}

func (p sqlitePinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised sqlite time %q", s)
}
