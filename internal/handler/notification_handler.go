package handler

import (
	"net/http"
	"strconv"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/service"
)

// NotificationHandler serves the admin notification center.
type NotificationHandler struct {
	svc service.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List handles GET /api/admin/notifications?unread=true&limit=&offset=.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := model.NotificationListOptions{}
	if v := q.Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_unread")
			return
		}
		opts.UnreadOnly = b
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}

	list, err := h.svc.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, err, "list_notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": nonNil(list)})
}

// UnreadCount handles GET /api/admin/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.UnreadCount(r.Context())
	if err != nil {
		writeServiceError(w, err, "count_notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// MarkRead handles PUT /api/admin/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.MarkRead(r.Context(), id); err != nil {
		writeServiceError(w, err, "mark_notification_read", "notification_id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// MarkAllRead handles PUT /api/admin/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllRead(r.Context())
	if err != nil {
		writeServiceError(w, err, "mark_all_notifications_read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// Delete handles DELETE /api/admin/notifications/{id}.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete_notification", "notification_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
