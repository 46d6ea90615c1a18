package repository

import (
	"context"

	"github.com/folio/backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgNotificationRepository is the PostgreSQL implementation of NotificationRepository.
type PgNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPgNotificationRepository creates a PgNotificationRepository backed by the given pool.
func NewPgNotificationRepository(pool *pgxpool.Pool) *PgNotificationRepository {
	return &PgNotificationRepository{pool: pool}
}

var _ NotificationRepository = (*PgNotificationRepository)(nil)

func (r *PgNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, type, title, body, ref_id, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		n.ID, string(n.Type), n.Title, n.Body, n.RefID, n.CreatedAt,
	)
	return err
}

func (r *PgNotificationRepository) List(ctx context.Context, opts model.NotificationListOptions) ([]*model.Notification, error) {
	query := `SELECT id, type, title, body, ref_id, is_read, created_at FROM notifications`
	if opts.UnreadOnly {
		query += ` WHERE is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, seq DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.Notification
	for rows.Next() {
		var n model.Notification
		var typ string
		if err := rows.Scan(&n.ID, &typ, &n.Title, &n.Body, &n.RefID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = model.NotificationType(typ)
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (r *PgNotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = FALSE`).Scan(&n)
	return n, err
}

func (r *PgNotificationRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgNotificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE is_read = FALSE`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgNotificationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
