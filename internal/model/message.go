package model

import "time"

// DefaultSenderName is used when a visitor leaves the name field blank.
const DefaultSenderName = "Visitor"

// Message is one unit of visitor-to-admin communication, optionally paired
// with a single admin reply.
type Message struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Email      string     `json:"email" db:"email"`
	Message    string     `json:"message" db:"message"`
	IsRead     bool       `json:"is_read" db:"is_read"`
	AdminReply *string    `json:"admin_reply" db:"admin_reply"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	RepliedAt  *time.Time `json:"replied_at" db:"replied_at"`
	UpdatedAt  *time.Time `json:"updated_at" db:"updated_at"`
}

// AwaitingReply reports whether the admin has not answered this message yet.
func (m *Message) AwaitingReply() bool {
	return m.AdminReply == nil
}

// MessageFilter narrows a message listing. An empty Email lists every message.
type MessageFilter struct {
	Email string
}

// Conversation is the server-side aggregate of all messages sharing one
// sender email.
type Conversation struct {
	Email         string    `json:"email" db:"email"`
	Name          string    `json:"name" db:"name"`
	UnreadCount   int       `json:"unread_count" db:"unread_count"`
	MessageCount  int       `json:"message_count" db:"message_count"`
	LastMessageAt time.Time `json:"last_message_at" db:"last_message_at"`
}
