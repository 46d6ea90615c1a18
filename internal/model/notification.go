package model

import "time"

// NotificationType classifies what an admin notification points at.
type NotificationType string

const (
	NotificationMessage     NotificationType = "message"
	NotificationProject     NotificationType = "project"
	NotificationBlog        NotificationType = "blog"
	NotificationTestimonial NotificationType = "testimonial"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMessage, NotificationProject, NotificationBlog, NotificationTestimonial:
		return true
	}
	return false
}

// Notification is an entry in the admin notification center.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	RefID     *string          `json:"ref_id,omitempty" db:"ref_id"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// NotificationListOptions carries filter and pagination parameters for
// listing notifications.
type NotificationListOptions struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}
