package service

import (
	"context"
	"time"

	"github.com/folio/backend/internal/model"
)

// MaxMessageLength caps visitor message and admin reply bodies, in runes.
const MaxMessageLength = 5000

// SubmitInput is a visitor message as received from the contact flow.
type SubmitInput struct {
	Name    string
	Email   string
	Message string
}

// MessageService defines the business logic of the visitor/admin message store.
type MessageService interface {
	// Submit validates and stores a new message. Email and Message are
	// required; an empty Name defaults to model.DefaultSenderName.
	Submit(ctx context.Context, in SubmitInput) (*model.Message, error)

	// List returns messages ordered by created_at ascending.
	List(ctx context.Context, filter model.MessageFilter) ([]*model.Message, error)

	// SetReadState sets is_read. Setting the current state again is not an error.
	SetReadState(ctx context.Context, id string, isRead bool) (*model.Message, error)

	// Reply stores (or overwrites) the admin reply and marks the message read.
	Reply(ctx context.Context, id, reply string) (*model.Message, error)

	// Delete permanently removes a message.
	Delete(ctx context.Context, id string) error

	// ListConversations returns per-sender aggregates, most recent first.
	ListConversations(ctx context.Context) ([]*model.Conversation, error)

	// WaitForReply blocks until an admin reply is stored for email or
	// timeout elapses. It reports whether a reply arrived.
	WaitForReply(ctx context.Context, email string, timeout time.Duration) bool

	// ReleaseWaiters ends every pending WaitForReply without a reply. Later
	// waits return at once. Called when the server shuts down.
	ReleaseWaiters()
}

// MessageObserver is told about stored messages. Observers run after the
// write has committed; their failures are logged and never undo it.
type MessageObserver interface {
	MessageSubmitted(ctx context.Context, msg *model.Message) error
	MessageReplied(ctx context.Context, msg *model.Message) error
}
