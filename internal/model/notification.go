package model

import (
	"fmt"
	"time"
)

// NotificationType identifies which kind of record a pushed event points at.
type NotificationType string

const (
	NotificationNewUserFAQ         NotificationType = "new-user-faq"
	NotificationNewEnquiry         NotificationType = "new-enquiry"
	NotificationNewContactMessage  NotificationType = "new-contact-message"
	NotificationNewReportedProduct NotificationType = "new-reported-product"
)

// NotificationTypes lists every notification type the console understands.
var NotificationTypes = []NotificationType{
	NotificationNewUserFAQ,
	NotificationNewEnquiry,
	NotificationNewContactMessage,
	NotificationNewReportedProduct,
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	_, ok := routes[t]
	return ok
}

// Label returns a short human-readable description of the type.
func (t NotificationType) Label() string {
	switch t {
	case NotificationNewUserFAQ:
		return "New FAQ submission"
	case NotificationNewEnquiry:
		return "New enquiry"
	case NotificationNewContactMessage:
		return "New contact message"
	case NotificationNewReportedProduct:
		return "New product report"
	default:
		return string(t)
	}
}

// Notification is a lightweight pointer to a newly created record,
// delivered over the push channel.
type Notification struct {
	// ID is unique per pushed event and doubles as the record identifier.
	ID string `json:"id"`

	// Type determines which list view and fetch endpoint the event targets.
	Type NotificationType `json:"type"`

	// Title is an optional preview supplied by the server.
	Title string `json:"title,omitempty"`

	// CreatedAt is when the server emitted the event.
	CreatedAt time.Time `json:"createdAt"`

	// ReceivedAt is when the console received the frame.
	ReceivedAt time.Time `json:"-"`

	// ReadAt is nil while the notification is unread.
	ReadAt *time.Time `json:"-"`
}

// IsRead reports whether the notification has been marked read.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// Message returns the text shown in the notification list.
func (n Notification) Message() string {
	if n.Title == "" {
		return n.Type.Label()
	}
	return fmt.Sprintf("%s: %s", n.Type.Label(), n.Title)
}

// ConnectionState is the lifecycle state of the push channel.
type ConnectionState int

const (
	ConnectionClosed ConnectionState = iota
	ConnectionConnecting
	ConnectionOpen
	ConnectionReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionConnecting:
		return "connecting"
	case ConnectionOpen:
		return "open"
	case ConnectionReconnecting:
		return "reconnecting"
	default:
		return "closed"
	}
}

// PendingItem is the one-shot descriptor carried across a navigation so the
// destination view can fetch and highlight a single record.
type PendingItem struct {
	ItemID                    string
	ItemType                  RecordKind
	OriginatingNotificationID string
}
