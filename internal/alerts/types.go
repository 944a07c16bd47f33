package alerts

import (
	"context"
	"errors"
	"time"
)

// Task type and queue for ledger lifecycle events.
const (
	TaskLedgerEvent = "ledger:event"
	QueueAlerts     = "alerts"
)

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Reference string     `json:"reference,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at"`
}

var ErrNotificationNotFound = errors.New("notification not found or already read")

type Store interface {
	// CreateNotification ignores a notification whose id is already stored.
	CreateNotification(ctx context.Context, n Notification) error
	// ListNotifications returns newest first.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}
