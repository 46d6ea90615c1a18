package service

import (
	"context"

	"github.com/folio/backend/internal/model"
)

// NotificationService defines the admin notification center.
type NotificationService interface {
	// Notify records a new unread notification.
	Notify(ctx context.Context, typ model.NotificationType, title, body string, refID *string) (*model.Notification, error)
	List(ctx context.Context, opts model.NotificationListOptions) ([]*model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}
