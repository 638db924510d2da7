package models

import (
	"database/sql"
	"time"
)

// Notification types (severity levels for the frontend toast/badge UI).
const (
	NotificationTypeInfo    = "info"
	NotificationTypeSuccess = "success"
	NotificationTypeWarning = "warning"
	NotificationTypeError   = "error"
)

// ValidNotificationType reports whether t is one of the enumerated types.
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeInfo, NotificationTypeSuccess, NotificationTypeWarning, NotificationTypeError:
		return true
	}
	return false
}

// Notification is the model for the 'notifications' table.
// The ID is generated application-side (UUID) so the live push can carry it
// without a round-trip back to the database.
type Notification struct {
	ID        string         `json:"id" db:"id"`
	UserID    int64          `json:"userId" db:"user_id"`
	Title     string         `json:"title" db:"title"`
	Message   sql.NullString `json:"message,omitempty" db:"message"`
	Type      string         `json:"type" db:"type"`
	Link      sql.NullString `json:"link,omitempty" db:"link"`
	IsRead    bool           `json:"isRead" db:"is_read"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// NotificationPayload is the wire representation pushed over the live stream.
// It is a subset of Notification; the durable row is always written first.
type NotificationPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Type      string    `json:"type"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Payload converts a durable notification row into its wire representation.
func (n *Notification) Payload() NotificationPayload {
	return NotificationPayload{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message.String,
		Type:      n.Type,
		Link:      n.Link.String,
		CreatedAt: n.CreatedAt,
	}
}
