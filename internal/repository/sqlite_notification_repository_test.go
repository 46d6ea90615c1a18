package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/backend/internal/model"
)

func createNotification(t *testing.T, repo NotificationRepository, title string, at time.Time) *model.Notification {
	t.Helper()
	ref := uuid.NewString()
	n := &model.Notification{
		ID:        uuid.NewString(),
		Type:      model.NotificationMessage,
		Title:     title,
		Body:      "body of " + title,
		RefID:     &ref,
		CreatedAt: at,
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestSQLiteNotificationRepository_ListNewestFirst(t *testing.T) {
	store := newTestSQLite(t)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	createNotification(t, store.Notifications, "old", base)
	createNotification(t, store.Notifications, "new", base.Add(time.Hour))

	list, err := store.Notifications.List(context.Background(), model.NotificationListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Title)
	assert.Equal(t, model.NotificationMessage, list[0].Type)
	require.NotNil(t, list[0].RefID)
	assert.False(t, list[0].IsRead)
}

func TestSQLiteNotificationRepository_ReadState(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	base := time.Now().UTC()
	n1 := createNotification(t, store.Notifications, "one", base)
	createNotification(t, store.Notifications, "two", base.Add(time.Second))
	createNotification(t, store.Notifications, "three", base.Add(2*time.Second))

	count, err := store.Notifications.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.Notifications.MarkRead(ctx, n1.ID))
	unread, err := store.Notifications.List(ctx, model.NotificationListOptions{UnreadOnly: true, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	updated, err := store.Notifications.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	count, err = store.Notifications.CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteNotificationRepository_Pagination(t *testing.T) {
	store := newTestSQLite(t)
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		createNotification(t, store.Notifications, "n", base.Add(time.Duration(i)*time.Second))
	}

	page, err := store.Notifications.List(context.Background(), model.NotificationListOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestSQLiteNotificationRepository_MissingIDs(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Notifications.MarkRead(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, store.Notifications.Delete(ctx, "nope"), ErrNotFound)
}
