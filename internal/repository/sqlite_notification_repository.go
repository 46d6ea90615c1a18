package repository

import (
	"context"

	"github.com/folio/backend/internal/model"
	"github.com/jmoiron/sqlx"
)

// SQLiteNotificationRepository is the sqlite implementation of NotificationRepository.
type SQLiteNotificationRepository struct {
	db *sqlx.DB
}

// NewSQLiteNotificationRepository creates a SQLiteNotificationRepository on db.
func NewSQLiteNotificationRepository(db *sqlx.DB) *SQLiteNotificationRepository {
	return &SQLiteNotificationRepository{db: db}
}

var _ NotificationRepository = (*SQLiteNotificationRepository)(nil)

func (r *SQLiteNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO notifications (id, type, title, body, ref_id, is_read, created_at)
		 VALUES (:id, :type, :title, :body, :ref_id, 0, :created_at)`, n)
	return err
}

func (r *SQLiteNotificationRepository) List(ctx context.Context, opts model.NotificationListOptions) ([]*model.Notification, error) {
	query := `SELECT id, type, title, body, ref_id, is_read, created_at FROM notifications`
	if opts.UnreadOnly {
		query += ` WHERE is_read = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`

	var list []*model.Notification
	if err := r.db.SelectContext(ctx, &list, query, opts.Limit, opts.Offset); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *SQLiteNotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE is_read = 0`)
	return n, err
}

func (r *SQLiteNotificationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return checkAffected(res, err)
}

func (r *SQLiteNotificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE is_read = 0`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteNotificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	return checkAffected(res, err)
}
