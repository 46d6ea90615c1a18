package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/repository"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
	notificationPreviewLen   = 140
)

// NotificationServiceImpl implements NotificationService and, as a
// MessageObserver, turns new visitor messages into notifications.
type NotificationServiceImpl struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

// NewNotificationService creates a NotificationService backed by repo.
func NewNotificationService(repo repository.NotificationRepository) *NotificationServiceImpl {
	return &NotificationServiceImpl{repo: repo, now: time.Now}
}

var (
	_ NotificationService = (*NotificationServiceImpl)(nil)
	_ MessageObserver     = (*NotificationServiceImpl)(nil)
)

func (s *NotificationServiceImpl) Notify(ctx context.Context, typ model.NotificationType, title, body string, refID *string) (*model.Notification, error) {
	if !typ.Valid() {
		return nil, invalid("type", "invalid_type")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title", "title_required")
	}
	n := &model.Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Body:      body,
		RefID:     refID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationServiceImpl) List(ctx context.Context, opts model.NotificationListOptions) ([]*model.Notification, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultNotificationLimit
	}
	if opts.Limit > maxNotificationLimit {
		opts.Limit = maxNotificationLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return s.repo.List(ctx, opts)
}

func (s *NotificationServiceImpl) UnreadCount(ctx context.Context) (int, error) {
	return s.repo.CountUnread(ctx)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return notFound(s.repo.MarkRead(ctx, id))
}

func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context) (int64, error) {
	return s.repo.MarkAllRead(ctx)
}

func (s *NotificationServiceImpl) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return notFound(s.repo.Delete(ctx, id))
}

// MessageSubmitted records a "message" notification pointing at msg.
func (s *NotificationServiceImpl) MessageSubmitted(ctx context.Context, msg *model.Message) error {
	id := msg.ID
	_, err := s.Notify(ctx, model.NotificationMessage,
		fmt.Sprintf("New message from %s", msg.Name),
		preview(msg.Message, notificationPreviewLen), &id)
	return err
}

func (s *NotificationServiceImpl) MessageReplied(context.Context, *model.Message) error {
	return nil
}

// preview shortens s to at most n runes, marking the cut with an ellipsis.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
