package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/folio/backend/internal/model"
)

func TestDigestService_SendUnreadDigest(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &mockMessageRepository{
		listConversationsFunc: func(ctx context.Context) ([]*model.Conversation, error) {
			return []*model.Conversation{
				{Email: "a@x.com", Name: "A", UnreadCount: 2, MessageCount: 3, LastMessageAt: at},
				{Email: "b@x.com", Name: "B", UnreadCount: 0, MessageCount: 1, LastMessageAt: at},
				{Email: "c@x.com", Name: "C", UnreadCount: 1, MessageCount: 1, LastMessageAt: at},
			}, nil
		},
	}
	mm := &mockMailer{}
	svc := NewDigestService(NewMessageService(repo), mm, "admin@example.com", "folio")

	n, err := svc.SendUnreadDigest(context.Background())
	if err != nil {
		t.Fatalf("SendUnreadDigest returned unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 conversations in digest, got %d", n)
	}
	if len(mm.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mm.sent))
	}
	body := mm.sent[0].Body
	if !strings.Contains(body, "a@x.com") || !strings.Contains(body, "c@x.com") || strings.Contains(body, "b@x.com") {
		t.Errorf("digest lists the wrong conversations: %q", body)
	}
	if !strings.Contains(mm.sent[0].Subject, "3 unread") {
		t.Errorf("expected total unread in subject, got %q", mm.sent[0].Subject)
	}
}

func TestDigestService_SkipsWhenInboxClear(t *testing.T) {
	mm := &mockMailer{}
	svc := NewDigestService(NewMessageService(&mockMessageRepository{}), mm, "admin@example.com", "folio")

	n, err := svc.SendUnreadDigest(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", n, err)
	}
	if len(mm.sent) != 0 {
		t.Error("expected no mail for a clear inbox")
	}
}

func TestDigestService_PropagatesListError(t *testing.T) {
	repo := &mockMessageRepository{
		listConversationsFunc: func(ctx context.Context) ([]*model.Conversation, error) {
			return nil, errors.New("db error")
		},
	}
	svc := NewDigestService(NewMessageService(repo), &mockMailer{}, "admin@example.com", "folio")

	if _, err := svc.SendUnreadDigest(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}
