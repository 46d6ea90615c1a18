package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folio/backend/internal/bus"
	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/repository"
)

// messageServiceImpl is the production implementation of MessageService.
type messageServiceImpl struct {
	repo      repository.MessageRepository
	observers []MessageObserver
	replies   *bus.SignalBus[string, *model.Message]
	now       func() time.Time
}

// NewMessageService creates a MessageService backed by the given repository.
// Observers are notified, in order, after each successful submit and reply.
func NewMessageService(repo repository.MessageRepository, observers ...MessageObserver) MessageService {
	return &messageServiceImpl{
		repo:      repo,
		observers: observers,
		replies:   bus.NewSignalBus[string, *model.Message](),
		now:       time.Now,
	}
}

func (s *messageServiceImpl) Submit(ctx context.Context, in SubmitInput) (*model.Message, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, invalid("email", "email_required")
	}
	body := strings.TrimSpace(in.Message)
	if body == "" {
		return nil, invalid("message", "message_required")
	}
	if len([]rune(body)) > MaxMessageLength {
		return nil, invalid("message", "message_too_long")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = model.DefaultSenderName
	}

	msg := &model.Message{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Message:   body,
		CreatedAt: s.timestamp(),
	}
	if err := s.repo.Insert(ctx, msg); err != nil {
		return nil, err
	}
	slog.Info("message submitted", "message_id", msg.ID, "email", msg.Email)

	for _, o := range s.observers {
		if err := o.MessageSubmitted(ctx, msg); err != nil {
			slog.Warn("message observer failed", "event", "submitted", "message_id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

func (s *messageServiceImpl) List(ctx context.Context, filter model.MessageFilter) ([]*model.Message, error) {
	filter.Email = strings.TrimSpace(filter.Email)
	return s.repo.List(ctx, filter)
}

func (s *messageServiceImpl) SetReadState(ctx context.Context, id string, isRead bool) (*model.Message, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	msg, err := s.repo.SetReadState(ctx, id, isRead, s.timestamp())
	if err != nil {
		return nil, notFound(err)
	}
	return msg, nil
}

func (s *messageServiceImpl) Reply(ctx context.Context, id, reply string) (*model.Message, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, invalid("admin_reply", "reply_required")
	}
	if len([]rune(reply)) > MaxMessageLength {
		return nil, invalid("admin_reply", "reply_too_long")
	}
	if !validID(id) {
		return nil, ErrNotFound
	}

	msg, err := s.repo.SetReply(ctx, id, reply, s.timestamp())
	if err != nil {
		return nil, notFound(err)
	}
	slog.Info("message replied", "message_id", msg.ID, "email", msg.Email)

	s.replies.Emit(msg.Email, msg)
	for _, o := range s.observers {
		if err := o.MessageReplied(ctx, msg); err != nil {
			slog.Warn("message observer failed", "event", "replied", "message_id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

func (s *messageServiceImpl) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	slog.Info("message deleted", "message_id", id)
	return nil
}

func (s *messageServiceImpl) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	return s.repo.ListConversations(ctx)
}

func (s *messageServiceImpl) WaitForReply(ctx context.Context, email string, timeout time.Duration) bool {
	email = strings.TrimSpace(email)
	if email == "" || timeout <= 0 {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, ok := s.replies.Wait(ctx, email)
	return ok
}

func (s *messageServiceImpl) ReleaseWaiters() {
	s.replies.Close()
}

// timestamp is the current time at the precision both stores keep, so a
// returned message matches what a later read sees.
func (s *messageServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// validID reports whether id can name a stored message or notification.
// Both use UUIDs; anything else cannot exist.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
