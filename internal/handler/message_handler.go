package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/service"
)

// MessageHandler handles the visitor/admin message endpoints.
type MessageHandler struct {
	svc         service.MessageService
	longPollMax time.Duration
}

// NewMessageHandler creates a MessageHandler. longPollMax caps the ?wait=
// parameter of ListByUser; zero disables long-polling.
func NewMessageHandler(svc service.MessageService, longPollMax time.Duration) *MessageHandler {
	return &MessageHandler{svc: svc, longPollMax: longPollMax}
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Submit handles POST /api/messages.
// email and message are required; name is optional.
func (h *MessageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	msg, err := h.svc.Submit(r.Context(), service.SubmitInput{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, err, "submit")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// List handles GET /api/messages (admin). An optional ?email= narrows the list.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.List(r.Context(), model.MessageFilter{Email: r.URL.Query().Get("email")})
	if err != nil {
		writeServiceError(w, err, "list")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(msgs))
}

// ListByUser handles GET /api/messages/user?email=<email>[&wait=<duration>].
//
// With wait, the request is held until an admin reply is written for that
// email or the wait elapses, whichever comes first; the list is returned
// either way.
func (h *MessageHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email_required")
		return
	}

	if v := r.URL.Query().Get("wait"); v != "" {
		wait, ok := parseWait(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_wait")
			return
		}
		if wait > h.longPollMax {
			wait = h.longPollMax
		}
		h.svc.WaitForReply(r.Context(), email, wait)
	}

	msgs, err := h.svc.List(r.Context(), model.MessageFilter{Email: email})
	if err != nil {
		writeServiceError(w, err, "list", "email", email)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(msgs))
}

// parseWait accepts a Go duration ("20s") or a whole number of seconds.
func parseWait(v string) (time.Duration, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, false
		}
		return time.Duration(n) * time.Second, true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

type readRequest struct {
	IsRead *bool `json:"is_read"`
}

// MarkRead handles PUT /api/messages/{id}/read (admin). The optional body
// {"is_read": false} marks the message unread again.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req readRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	isRead := true
	if req.IsRead != nil {
		isRead = *req.IsRead
	}

	id := r.PathValue("id")
	msg, err := h.svc.SetReadState(r.Context(), id, isRead)
	if err != nil {
		writeServiceError(w, err, "mark_read", "message_id", id)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

type replyRequest struct {
	AdminReply string `json:"admin_reply"`
}

// Reply handles PUT /api/messages/{id}/reply (admin).
func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	id := r.PathValue("id")
	msg, err := h.svc.Reply(r.Context(), id, req.AdminReply)
	if err != nil {
		writeServiceError(w, err, "reply", "message_id", id)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Delete handles DELETE /api/messages/{id} (admin).
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete", "message_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Conversations handles GET /api/messages/conversations (admin).
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.svc.ListConversations(r.Context())
	if err != nil {
		writeServiceError(w, err, "list_conversations")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(convs))
}

// nonNil makes empty results encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
