// Package client is a typed HTTP client for the folio message API.
//
// Admin calls take an explicit *Session obtained from Login; the client
// itself holds no credentials.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/folio/backend/internal/model"
)

const defaultTimeout = 30 * time.Second

// Session is an authenticated admin session.
type Session struct {
	Token     string    `json:"token"     yaml:"token"`
	Email     string    `json:"email"     yaml:"email"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || s.Token == "" || !now.Before(s.ExpiresAt)
}

// ErrNoSession is returned by admin calls made without a session.
var ErrNoSession = errors.New("client: admin session required")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: HTTP %d: %s", e.StatusCode, e.Code)
}

// IsValidation reports a rejected input (HTTP 400).
func (e *APIError) IsValidation() bool { return e.StatusCode == http.StatusBadRequest }

// IsNotFound reports an unknown id (HTTP 404).
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsUnauthorized reports a missing, expired or rejected session (HTTP 401).
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// TransientError is a request that failed before the server answered.
// Callers may retry it; the client never does.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a *TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// AsAPIError returns the *APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	ok := errors.As(err, &e)
	return e, ok
}

// Client talks to one folio API root, e.g. "https://example.com/api".
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout (long-poll waits are added on top).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitRequest is a new visitor message.
type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Submit posts a visitor message.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*model.Message, error) {
	var msg model.Message
	if err := c.do(ctx, http.MethodPost, "/messages", nil, req, &msg, 0); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByEmail returns one sender's messages, oldest first. A positive wait
// asks the server to hold the request until an admin reply arrives or wait
// elapses.
func (c *Client) ListByEmail(ctx context.Context, email string, wait time.Duration) ([]*model.Message, error) {
	q := url.Values{"email": {email}}
	if wait > 0 {
		q.Set("wait", wait.String())
	}
	var msgs []*model.Message
	if err := c.do(ctx, http.MethodGet, "/messages/user?"+q.Encode(), nil, nil, &msgs, wait); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Login exchanges admin credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/admin/login", nil, body, &sess, 0); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Me returns the email of the session's admin, verifying the session.
func (c *Client) Me(ctx context.Context, s *Session) (string, error) {
	var resp struct {
		Email string `json:"email"`
	}
	if err := c.admin(ctx, s, http.MethodGet, "/admin/me", nil, &resp); err != nil {
		return "", err
	}
	return resp.Email, nil
}

// List returns every message, oldest first.
func (c *Client) List(ctx context.Context, s *Session) ([]*model.Message, error) {
	var msgs []*model.Message
	if err := c.admin(ctx, s, http.MethodGet, "/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Conversations returns the server-side per-sender aggregates.
func (c *Client) Conversations(ctx context.Context, s *Session) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	if err := c.admin(ctx, s, http.MethodGet, "/messages/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// SetReadState marks a message read or unread.
func (c *Client) SetReadState(ctx context.Context, s *Session, id string, isRead bool) (*model.Message, error) {
	var msg model.Message
	body := map[string]bool{"is_read": isRead}
	if err := c.admin(ctx, s, http.MethodPut, "/messages/"+url.PathEscape(id)+"/read", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Reply stores the admin reply to a message.
func (c *Client) Reply(ctx context.Context, s *Session, id, reply string) (*model.Message, error) {
	var msg model.Message
	body := map[string]string{"admin_reply": reply}
	if err := c.admin(ctx, s, http.MethodPut, "/messages/"+url.PathEscape(id)+"/reply", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Delete permanently removes a message.
func (c *Client) Delete(ctx context.Context, s *Session, id string) error {
	return c.admin(ctx, s, http.MethodDelete, "/messages/"+url.PathEscape(id), nil, nil)
}

// Notifications lists admin notifications, newest first.
func (c *Client) Notifications(ctx context.Context, s *Session, opts model.NotificationListOptions) ([]*model.Notification, error) {
	q := url.Values{}
	if opts.UnreadOnly {
		q.Set("unread", "true")
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/admin/notifications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Notifications []*model.Notification `json:"notifications"`
	}
	if err := c.admin(ctx, s, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

// UnreadNotificationCount returns the number of unread notifications.
func (c *Client) UnreadNotificationCount(ctx context.Context, s *Session) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.admin(ctx, s, http.MethodGet, "/admin/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, s *Session, id string) error {
	return c.admin(ctx, s, http.MethodPut, "/admin/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification read and returns how many changed.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, s *Session) (int64, error) {
	var resp struct {
		Updated int64 `json:"updated"`
	}
	if err := c.admin(ctx, s, http.MethodPut, "/admin/notifications/read-all", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// DeleteNotification removes a notification.
func (c *Client) DeleteNotification(ctx context.Context, s *Session, id string) error {
	return c.admin(ctx, s, http.MethodDelete, "/admin/notifications/"+url.PathEscape(id), nil, nil)
}

func (c *Client) admin(ctx context.Context, s *Session, method, path string, body, out any) error {
	if s == nil || s.Token == "" {
		return ErrNoSession
	}
	return c.do(ctx, method, path, s, body, out, 0)
}

// do performs one request. Transport failures become *TransientError,
// non-2xx answers *APIError.
func (c *Client) do(ctx context.Context, method, path string, s *Session, body, out any, extra time.Duration) error {
	op := method + " " + strings.SplitN(path, "?", 2)[0]

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout+extra)
		defer cancel()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Code: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
