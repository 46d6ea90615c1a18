package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/folio/backend/internal/model"
	"github.com/jmoiron/sqlx"
)

// SQLiteMessageRepository is the sqlite implementation of MessageRepository,
// used for local development and tests.
type SQLiteMessageRepository struct {
	db *sqlx.DB
}

// NewSQLiteMessageRepository creates a SQLiteMessageRepository on db.
func NewSQLiteMessageRepository(db *sqlx.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

var _ MessageRepository = (*SQLiteMessageRepository)(nil)

func (r *SQLiteMessageRepository) Insert(ctx context.Context, msg *model.Message) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO messages (id, name, email, message, is_read, created_at)
		 VALUES (:id, :name, :email, :message, 0, :created_at)`, msg)
	return err
}

func (r *SQLiteMessageRepository) List(ctx context.Context, filter model.MessageFilter) ([]*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages`
	var args []any
	if filter.Email != "" {
		query += ` WHERE email = ?`
		args = append(args, filter.Email)
	}
	// rowid breaks ties between messages stored within the same instant.
	query += ` ORDER BY created_at ASC, rowid ASC`

	var messages []*model.Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *SQLiteMessageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := r.db.GetContext(ctx, &m, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SQLiteMessageRepository) SetReadState(ctx context.Context, id string, isRead bool, at time.Time) (*model.Message, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = ?, updated_at = ? WHERE id = ?`, isRead, at, id)
	if err := checkAffected(res, err); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteMessageRepository) SetReply(ctx context.Context, id, reply string, at time.Time) (*model.Message, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET admin_reply = ?, replied_at = ?, updated_at = ?, is_read = 1 WHERE id = ?`,
		reply, at, at, id)
	if err := checkAffected(res, err); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteMessageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return checkAffected(res, err)
}

// conversationRow mirrors conversationsQuery; sqlite returns the MAX()
// aggregate as text.
type conversationRow struct {
	Email         string `db:"email"`
	Name          string `db:"name"`
	UnreadCount   int    `db:"unread_count"`
	MessageCount  int    `db:"message_count"`
	LastMessageAt string `db:"last_message_at"`
}

func (r *SQLiteMessageRepository) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	var rows []conversationRow
	if err := r.db.SelectContext(ctx, &rows, conversationsQuery); err != nil {
		return nil, err
	}

	convs := make([]*model.Conversation, 0, len(rows))
	for _, row := range rows {
		last, err := parseSQLiteTime(row.LastMessageAt)
		if err != nil {
			return nil, err
		}
		convs = append(convs, &model.Conversation{
			Email:         row.Email,
			Name:          row.Name,
			UnreadCount:   row.UnreadCount,
			MessageCount:  row.MessageCount,
			LastMessageAt: last,
		})
	}
	return convs, nil
}

// checkAffected turns a zero-row write into ErrNotFound.
func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
