package handler

import (
	"net/http"
	"time"

	"github.com/folio/backend/internal/repository"
	"github.com/folio/backend/internal/service"
	"github.com/folio/backend/pkg/auth"
)

// Services are the business services the API exposes.
type Services struct {
	Messages      service.MessageService
	Notifications service.NotificationService
	Auth          service.AuthService
}

// RouterConfig carries the HTTP-level settings of NewRouter.
type RouterConfig struct {
	DB            repository.DB
	FrontendURL   string
	SessionSecret []byte
	AuthRequired  bool
	SecureCookie  bool
	LongPollMax   time.Duration
	// ContactLimiter, if set, guards POST /api/messages.
	ContactLimiter *RateLimiter
}

// NewRouter builds the API mux wrapped in logging, security headers and CORS.
func NewRouter(cfg RouterConfig, svcs Services) http.Handler {
	h := New(cfg.DB, cfg.FrontendURL)
	messageHandler := NewMessageHandler(svcs.Messages, cfg.LongPollMax)
	notificationHandler := NewNotificationHandler(svcs.Notifications)
	authHandler := NewAuthHandler(svcs.Auth, cfg.SecureCookie)

	wrapAdmin := func(next http.HandlerFunc) http.Handler {
		if cfg.AuthRequired {
			return auth.RequireAdmin(cfg.SessionSecret)(next)
		}
		return auth.DevAuth(next)
	}

	var submit http.Handler = http.HandlerFunc(messageHandler.Submit)
	if cfg.ContactLimiter != nil {
		submit = cfg.ContactLimiter.Middleware(submit)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)

	// visitor endpoints
	mux.Handle("POST /api/messages", submit)
	mux.HandleFunc("GET /api/messages/user", messageHandler.ListByUser)

	// admin message endpoints
	mux.Handle("GET /api/messages", wrapAdmin(messageHandler.List))
	mux.Handle("GET /api/messages/conversations", wrapAdmin(messageHandler.Conversations))
	mux.Handle("PUT /api/messages/{id}/read", wrapAdmin(messageHandler.MarkRead))
	mux.Handle("PUT /api/messages/{id}/reply", wrapAdmin(messageHandler.Reply))
	mux.Handle("DELETE /api/messages/{id}", wrapAdmin(messageHandler.Delete))

	// admin session
	mux.HandleFunc("POST /api/admin/login", authHandler.Login)
	mux.HandleFunc("POST /api/admin/logout", authHandler.Logout)
	mux.Handle("GET /api/admin/me", wrapAdmin(authHandler.Me))

	// notification center
	mux.Handle("GET /api/admin/notifications", wrapAdmin(notificationHandler.List))
	mux.Handle("GET /api/admin/notifications/unread-count", wrapAdmin(notificationHandler.UnreadCount))
	mux.Handle("PUT /api/admin/notifications/read-all", wrapAdmin(notificationHandler.MarkAllRead))
	mux.Handle("PUT /api/admin/notifications/{id}/read", wrapAdmin(notificationHandler.MarkRead))
	mux.Handle("DELETE /api/admin/notifications/{id}", wrapAdmin(notificationHandler.Delete))

	return RequestLogger(SecurityHeaders(h.CORS(mux)))
}
