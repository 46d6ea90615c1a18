package repository

import (
	"context"

	"github.com/folio/backend/internal/model"
)

// NotificationRepository defines the persistence interface for the admin
// notification center.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// List returns notifications newest first.
	List(ctx context.Context, opts model.NotificationListOptions) ([]*model.Notification, error)
	CountUnread(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}
