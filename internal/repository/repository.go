package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates a PostgreSQL connection pool and verifies connectivity.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Store bundles the repositories backing one database.
type Store struct {
	DB            DB
	Messages      MessageRepository
	Notifications NotificationRepository

	close func()
}

// Open connects to databaseURL, choosing the postgres implementation for
// postgres:// URLs and sqlite otherwise. SQLite databases are migrated on open.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if IsPostgresURL(databaseURL) {
		pool, err := NewPool(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to postgres")
		return &Store{
			DB:            pool,
			Messages:      NewPgMessageRepository(pool),
			Notifications: NewPgNotificationRepository(pool),
			close:         pool.Close,
		}, nil
	}

	db, err := OpenSQLite(databaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to sqlite", "dsn", SQLiteDSN(databaseURL))
	return &Store{
		DB:            sqlitePinger{db: db},
		Messages:      NewSQLiteMessageRepository(db),
		Notifications: NewSQLiteNotificationRepository(db),
		close: func() {
			if err := db.Close(); err != nil {
				slog.Error("close sqlite", "error", err)
			}
		},
	}, nil
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}
