// Package mailer sends plain-text notification mails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Mail is a single plain-text message.
type Mail struct {
	To      []string
	Subject string
	Body    string
}

// Mailer delivers mail. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
	// Enabled reports whether mail actually leaves the process.
	Enabled() bool
}

// Config holds SMTP settings. An empty Addr disables sending.
type Config struct {
	Addr     string
	Username string
	Password string
	From     string
}

// New returns an SMTP mailer when cfg.Addr is set and a no-op mailer otherwise.
func New(cfg Config) Mailer {
	if cfg.Addr == "" {
		return NopMailer{}
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

// ErrNoRecipients is returned when a mail has no recipient.
var ErrNoRecipients = errors.New("mailer: no recipients")

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	cfg      Config
	sendMail func(addr string, a sasl.Client, from string, to []string, r io.Reader) error
}

func (m *SMTPMailer) Enabled() bool { return true }

func (m *SMTPMailer) Send(ctx context.Context, mail Mail) error {
	if len(mail.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth sasl.Client
	if m.cfg.Username != "" {
		auth = sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)
	}

	msg := Compose(m.cfg.From, mail, time.Now())
	if err := m.sendMail(m.cfg.Addr, auth, m.cfg.From, mail.To, strings.NewReader(msg)); err != nil {
		return fmt.Errorf("mailer: send to %v: %w", mail.To, err)
	}
	slog.Debug("mail sent", "to", mail.To, "subject", mail.Subject)
	return nil
}

// Compose renders mail as an RFC 5322 message with CRLF line endings.
func Compose(from string, mail Mail, date time.Time) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(mail.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", mail.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	body := strings.ReplaceAll(mail.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\r\n")
	}
	return b.String()
}

// NopMailer drops every mail.
type NopMailer struct{}

func (NopMailer) Enabled() bool { return false }

func (NopMailer) Send(_ context.Context, mail Mail) error {
	slog.Debug("mail disabled, dropping", "to", mail.To, "subject", mail.Subject)
	return nil
}
