package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/backend/internal/model"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api")
}

func TestSubmit(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req SubmitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, SubmitRequest{Name: "Jane", Email: "jane@x.com", Message: "Hi"}, req)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Message{ID: "m-1", Email: req.Email, Message: req.Message})
	})

	msg, err := c.Submit(context.Background(), SubmitRequest{Name: "Jane", Email: "jane@x.com", Message: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", msg.ID)
}

func TestListByEmail_EncodesQueryAndWait(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages/user", r.URL.Path)
		assert.Equal(t, "a+b@x.com", r.URL.Query().Get("email"))
		assert.Equal(t, "5s", r.URL.Query().Get("wait"))
		_ = json.NewEncoder(w).Encode([]model.Message{{ID: "1"}, {ID: "2"}})
	})

	msgs, err := c.ListByEmail(context.Background(), "a+b@x.com", 5*time.Second)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestAdminCallsRequireSession(t *testing.T) {
	c := New("http://127.0.0.1:0/api")
	ctx := context.Background()

	_, err := c.List(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, c.Delete(ctx, &Session{}, "x"), ErrNoSession)
}

func TestAdminCallsSendBearerToken(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/messages/m-1/read":
			var body map[string]bool
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.False(t, body["is_read"])
			_ = json.NewEncoder(w).Encode(model.Message{ID: "m-1"})
		case "/api/messages/m-1":
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	sess := &Session{Token: "tok"}

	msg, err := c.SetReadState(context.Background(), sess, "m-1", false)
	require.NoError(t, err)
	assert.Equal(t, "m-1", msg.ID)
	require.NoError(t, c.Delete(context.Background(), sess, "m-1"))
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		status       int
		code         string
		validation   bool
		notFound     bool
		unauthorized bool
	}{
		{http.StatusBadRequest, "reply_required", true, false, false},
		{http.StatusNotFound, "not_found", false, true, false},
		{http.StatusUnauthorized, "invalid_session", false, false, true},
		{http.StatusInternalServerError, "reply_failed", false, false, false},
	}
	for _, tt := range tests {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": tt.code})
		})

		_, err := c.Reply(context.Background(), &Session{Token: "tok"}, "m-1", "hi")
		apiErr, ok := AsAPIError(err)
		require.True(t, ok, "expected APIError, got %v", err)
		assert.Equal(t, tt.status, apiErr.StatusCode)
		assert.Equal(t, tt.code, apiErr.Code)
		assert.Equal(t, tt.validation, apiErr.IsValidation())
		assert.Equal(t, tt.notFound, apiErr.IsNotFound())
		assert.Equal(t, tt.unauthorized, apiErr.IsUnauthorized())
		assert.False(t, IsTransient(err))
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Submit(context.Background(), SubmitRequest{Email: "a@x.com", Message: "hi"})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestLoginAndNotifications(t *testing.T) {
	expires := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/login":
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok", "email": "admin@x.com", "expires_at": expires})
		case "/api/admin/notifications":
			assert.Equal(t, "true", r.URL.Query().Get("unread"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_ = json.NewEncoder(w).Encode(map[string]any{"notifications": []model.Notification{{ID: "n-1"}}})
		case "/api/admin/notifications/unread-count":
			_ = json.NewEncoder(w).Encode(map[string]int{"count": 4})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	sess, err := c.Login(ctx, "admin@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	assert.True(t, expires.Equal(sess.ExpiresAt))
	assert.False(t, sess.Expired(expires.Add(-time.Minute)))
	assert.True(t, sess.Expired(expires))

	list, err := c.Notifications(ctx, sess, model.NotificationListOptions{UnreadOnly: true, Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n-1", list[0].ID)

	n, err := c.UnreadNotificationCount(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
