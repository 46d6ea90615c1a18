package repository

import (
	"context"
	"time"

	"github.com/folio/backend/internal/model"
)

// MessageRepository defines the persistence interface for visitor messages.
// Every method is a single-row (or single-insert) atomic write or a read;
// concurrent writers to the same row resolve last-write-wins.
type MessageRepository interface {
	// Insert persists msg as-is. ID and CreatedAt must already be set.
	Insert(ctx context.Context, msg *model.Message) error
	// List returns messages ordered by created_at ascending, optionally
	// restricted to one sender email.
	List(ctx context.Context, filter model.MessageFilter) ([]*model.Message, error)
	GetByID(ctx context.Context, id string) (*model.Message, error)
	// SetReadState returns ErrNotFound when id does not exist.
	SetReadState(ctx context.Context, id string, isRead bool, at time.Time) (*model.Message, error)
	// SetReply overwrites any previous reply, stamps replied_at and marks the
	// message read. Returns ErrNotFound when id does not exist.
	SetReply(ctx context.Context, id, reply string, at time.Time) (*model.Message, error)
	// Delete hard-deletes the row. Returns ErrNotFound when id does not exist.
	Delete(ctx context.Context, id string) error
	// ListConversations aggregates messages per sender email, most recent
	// conversation first.
	ListConversations(ctx context.Context) ([]*model.Conversation, error)
}
