package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/folio/backend/internal/mailer"
	"github.com/folio/backend/internal/model"
)

// MailNotifier mails the admin about new messages and the visitor about
// admin replies.
type MailNotifier struct {
	mailer     mailer.Mailer
	adminEmail string
	siteName   string
}

// NewMailNotifier creates a MailNotifier. An empty adminEmail skips the
// new-message mail.
func NewMailNotifier(m mailer.Mailer, adminEmail, siteName string) *MailNotifier {
	return &MailNotifier{mailer: m, adminEmail: adminEmail, siteName: siteName}
}

var _ MessageObserver = (*MailNotifier)(nil)

func (n *MailNotifier) MessageSubmitted(ctx context.Context, msg *model.Message) error {
	if n.adminEmail == "" {
		return nil
	}
	return n.mailer.Send(ctx, mailer.Mail{
		To:      []string{n.adminEmail},
		Subject: fmt.Sprintf("[%s] New message from %s", n.siteName, msg.Name),
		Body: fmt.Sprintf("From: %s <%s>\nAt: %s\n\n%s\n",
			msg.Name, msg.Email, msg.CreatedAt.Format(time.RFC1123), msg.Message),
	})
}

func (n *MailNotifier) MessageReplied(ctx context.Context, msg *model.Message) error {
	if msg.AdminReply == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n%s\n\n", msg.Name, *msg.AdminReply)
	b.WriteString("> ")
	b.WriteString(strings.ReplaceAll(msg.Message, "\n", "\n> "))
	b.WriteString("\n")
	return n.mailer.Send(ctx, mailer.Mail{
		To:      []string{msg.Email},
		Subject: fmt.Sprintf("Re: your message to %s", n.siteName),
		Body:    b.String(),
	})
}

// AsyncObserver runs a MessageObserver in the background so slow side
// effects (SMTP) do not hold up the API response. Wait blocks until every
// started notification has finished.
type AsyncObserver struct {
	inner   MessageObserver
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncObserver wraps inner; each notification gets its own timeout.
func NewAsyncObserver(inner MessageObserver, timeout time.Duration) *AsyncObserver {
	return &AsyncObserver{inner: inner, timeout: timeout}
}

var _ MessageObserver = (*AsyncObserver)(nil)

func (a *AsyncObserver) MessageSubmitted(ctx context.Context, msg *model.Message) error {
	a.run(ctx, "submitted", msg, a.inner.MessageSubmitted)
	return nil
}

func (a *AsyncObserver) MessageReplied(ctx context.Context, msg *model.Message) error {
	a.run(ctx, "replied", msg, a.inner.MessageReplied)
	return nil
}

func (a *AsyncObserver) run(ctx context.Context, event string, msg *model.Message, fn func(context.Context, *model.Message) error) {
	// Detach from the request so the work outlives the response.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		if err := fn(ctx, msg); err != nil {
			slog.Warn("async message observer failed", "event", event, "message_id", msg.ID, "error", err)
		}
	}()
}

// Wait blocks until all in-flight notifications are done.
func (a *AsyncObserver) Wait() {
	a.wg.Wait()
}
