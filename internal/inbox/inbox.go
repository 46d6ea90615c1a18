// Package inbox is the admin's view over all visitor messages, grouped into
// conversations by sender email.
package inbox

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/pkg/client"
)

// ErrEmptyReply is returned, without contacting the server, for a blank reply.
var ErrEmptyReply = errors.New("inbox: reply text is empty")

// API is the part of the message API the inbox uses. *client.Client
// implements it.
type API interface {
	List(ctx context.Context, s *client.Session) ([]*model.Message, error)
	SetReadState(ctx context.Context, s *client.Session, id string, isRead bool) (*model.Message, error)
	Reply(ctx context.Context, s *client.Session, id, reply string) (*model.Message, error)
	Delete(ctx context.Context, s *client.Session, id string) error
}

// Group is one conversation in the inbox.
type Group struct {
	Email       string
	Name        string
	UnreadCount int
	LastMessage time.Time
	Messages    []*model.Message
}

// Inbox caches the full message list and its grouping. Every mutation is
// followed by a Refresh, so the cache always reflects the server after a
// successful call. It is safe for concurrent use.
type Inbox struct {
	api     API
	session *client.Session

	mu       sync.RWMutex
	messages []*model.Message
	groups   []Group
}

// New creates an Inbox acting with session.
func New(api API, session *client.Session) *Inbox {
	return &Inbox{api: api, session: session}
}

// Refresh refetches every message and regroups them.
func (in *Inbox) Refresh(ctx context.Context) error {
	msgs, err := in.api.List(ctx, in.session)
	if err != nil {
		return err
	}
	groups := GroupMessages(msgs)

	in.mu.Lock()
	in.messages = msgs
	in.groups = groups
	in.mu.Unlock()
	return nil
}

// Groups returns the conversations from the last Refresh, most recent first.
func (in *Inbox) Groups() []Group {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]Group, len(in.groups))
	copy(out, in.groups)
	return out
}

// TotalUnread sums the unread counts of every group.
func (in *Inbox) TotalUnread() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	n := 0
	for _, g := range in.groups {
		n += g.UnreadCount
	}
	return n
}

// Select returns one sender's messages from the cached set, oldest first.
// It does not contact the server.
func (in *Inbox) Select(email string) []*model.Message {
	in.mu.RLock()
	defer in.mu.RUnlock()
	var out []*model.Message
	for _, m := range in.messages {
		if m.Email == email {
			out = append(out, m)
		}
	}
	sortThread(out)
	return out
}

// MarkRead marks id read and refreshes.
func (in *Inbox) MarkRead(ctx context.Context, id string) error {
	if _, err := in.api.SetReadState(ctx, in.session, id, true); err != nil {
		return err
	}
	return in.Refresh(ctx)
}

// Reply stores text as the reply to id and refreshes. A blank text is
// rejected locally with ErrEmptyReply.
func (in *Inbox) Reply(ctx context.Context, id, text string) error {
	if strings.TrimSpace(text) == "" {
		slog.Warn("inbox: ignoring empty reply", "message_id", id)
		return ErrEmptyReply
	}
	if _, err := in.api.Reply(ctx, in.session, id, text); err != nil {
		return err
	}
	return in.Refresh(ctx)
}

// Delete removes id and refreshes.
func (in *Inbox) Delete(ctx context.Context, id string) error {
	if err := in.api.Delete(ctx, in.session, id); err != nil {
		return err
	}
	return in.Refresh(ctx)
}

// GroupMessages groups msgs by sender email in a single pass. Groups are
// ordered by their latest message, most recent first; messages inside a
// group are oldest first. The group name is taken from the latest message.
func GroupMessages(msgs []*model.Message) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, m := range msgs {
		i, ok := index[m.Email]
		if !ok {
			i = len(groups)
			index[m.Email] = i
			groups = append(groups, Group{Email: m.Email})
		}
		g := &groups[i]
		g.Messages = append(g.Messages, m)
		if !m.IsRead {
			g.UnreadCount++
		}
		if g.Name == "" || !m.CreatedAt.Before(g.LastMessage) {
			g.LastMessage = m.CreatedAt
			g.Name = m.Name
		}
	}
	for i := range groups {
		sortThread(groups[i].Messages)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LastMessage.After(groups[j].LastMessage)
	})
	return groups
}

func sortThread(msgs []*model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
