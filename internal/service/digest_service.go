package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/folio/backend/internal/mailer"
	"github.com/folio/backend/internal/model"
)

// DigestService mails the admin a summary of conversations that still have
// unread messages.
type DigestService struct {
	messages   MessageService
	mailer     mailer.Mailer
	adminEmail string
	siteName   string
}

// NewDigestService creates a DigestService.
func NewDigestService(messages MessageService, m mailer.Mailer, adminEmail, siteName string) *DigestService {
	return &DigestService{messages: messages, mailer: m, adminEmail: adminEmail, siteName: siteName}
}

// SendUnreadDigest sends the digest. It returns the number of conversations
// listed; nothing is sent when there are none.
func (s *DigestService) SendUnreadDigest(ctx context.Context) (int, error) {
	if s.adminEmail == "" {
		return 0, nil
	}
	convs, err := s.messages.ListConversations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list conversations: %w", err)
	}

	var unread []*model.Conversation
	total := 0
	for _, c := range convs {
		if c.UnreadCount > 0 {
			unread = append(unread, c)
			total += c.UnreadCount
		}
	}
	if len(unread) == 0 {
		slog.Debug("unread digest skipped, inbox is clear")
		return 0, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d unread message(s) in %d conversation(s):\n\n", total, len(unread))
	for _, c := range unread {
		fmt.Fprintf(&b, "- %s <%s>: %d unread, last %s\n",
			c.Name, c.Email, c.UnreadCount, c.LastMessageAt.Format(time.RFC1123))
	}

	err = s.mailer.Send(ctx, mailer.Mail{
		To:      []string{s.adminEmail},
		Subject: fmt.Sprintf("[%s] %d unread message(s)", s.siteName, total),
		Body:    b.String(),
	})
	if err != nil {
		return 0, err
	}
	slog.Info("unread digest sent", "conversations", len(unread), "unread", total)
	return len(unread), nil
}
