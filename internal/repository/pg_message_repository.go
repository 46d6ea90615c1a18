package repository

import (
	"context"
	"errors"
	"time"

	"github.com/folio/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `id, name, email, message, is_read, admin_reply, created_at, replied_at, updated_at`

// PgMessageRepository is the PostgreSQL implementation of MessageRepository.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

// NewPgMessageRepository creates a PgMessageRepository backed by the given pool.
func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

var _ MessageRepository = (*PgMessageRepository)(nil)

func scanPgMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.IsRead,
		&m.AdminReply, &m.CreatedAt, &m.RepliedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgMessageRepository) Insert(ctx context.Context, msg *model.Message) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, name, email, message, is_read, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5)`,
		msg.ID, msg.Name, msg.Email, msg.Message, msg.CreatedAt,
	)
	return err
}

func (r *PgMessageRepository) List(ctx context.Context, filter model.MessageFilter) ([]*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages`
	var args []any
	if filter.Email != "" {
		query += ` WHERE email = $1`
		args = append(args, filter.Email)
	}
	query += ` ORDER BY created_at ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m, err := scanPgMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *PgMessageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	return scanPgMessage(r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

func (r *PgMessageRepository) SetReadState(ctx context.Context, id string, isRead bool, at time.Time) (*model.Message, error) {
	return scanPgMessage(r.pool.QueryRow(ctx,
		`UPDATE messages SET is_read = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING `+messageColumns,
		id, isRead, at))
}

func (r *PgMessageRepository) SetReply(ctx context.Context, id, reply string, at time.Time) (*model.Message, error) {
	return scanPgMessage(r.pool.QueryRow(ctx,
		`UPDATE messages SET admin_reply = $2, replied_at = $3, updated_at = $3, is_read = TRUE
		 WHERE id = $1
		 RETURNING `+messageColumns,
		id, reply, at))
}

func (r *PgMessageRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// conversationsQuery is shared by the postgres and sqlite implementations.
// The display name is the one on the sender's latest message.
const conversationsQuery = `
	SELECT m.email,
	       COALESCE((SELECT n.name FROM messages n
	                 WHERE n.email = m.email
	                 ORDER BY n.created_at DESC LIMIT 1), '') AS name,
	       SUM(CASE WHEN m.is_read THEN 0 ELSE 1 END) AS unread_count,
	       COUNT(*) AS message_count,
	       MAX(m.created_at) AS last_message_at
	FROM messages m
	GROUP BY m.email
	ORDER BY last_message_at DESC, m.email ASC`

func (r *PgMessageRepository) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	rows, err := r.pool.Query(ctx, conversationsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.Email, &c.Name, &c.UnreadCount, &c.MessageCount, &c.LastMessageAt); err != nil {
			return nil, err
		}
		convs = append(convs, &c)
	}
	return convs, rows.Err()
}
