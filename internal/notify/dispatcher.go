// Package notify resolves notification audiences, persists durable rows and
// hands them to the realtime broadcaster for live delivery.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/google/uuid"
)

// DefaultBatchSize bounds how many notification rows a single INSERT writes.
const DefaultBatchSize = 500

// Intent describes one notification request. Exactly one audience selector
// should be set; when several are, precedence is UserID, then UserIDs, then
// TargetRole/AllUsers.
type Intent struct {
	UserID     int64   `json:"userId,omitempty"`
	UserIDs    []int64 `json:"userIds,omitempty"`
	AllUsers   bool    `json:"allUsers,omitempty"`
	TargetRole string  `json:"targetRole,omitempty"` // student, instructor, admin, all

	Title   string `json:"title" binding:"required"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"` // defaults to "info"
	Link    string `json:"link,omitempty"`
}

// Store is the durable-side collaborator of the dispatcher.
type Store interface {
	// InsertNotifications writes one batch of rows. All-or-nothing per batch.
	InsertNotifications(ctx context.Context, rows []models.Notification) error
	// UserIDsByRole returns all user IDs, filtered by role unless role is
	// empty or "all".
	UserIDsByRole(ctx context.Context, role string) ([]int64, error)
}

// Broadcaster is the live-side collaborator of the dispatcher.
type Broadcaster interface {
	Publish(userID int64, payload models.NotificationPayload)
}

// Dispatcher fans a notification intent out to its audience: durable rows
// first, live pushes second. Durability always precedes visibility.
type Dispatcher struct {
	store       Store
	broadcaster Broadcaster
	batchSize   int
}

// NewDispatcher returns a dispatcher with the default batch size.
func NewDispatcher(store Store, broadcaster Broadcaster) *Dispatcher {
	return NewDispatcherWithBatchSize(store, broadcaster, DefaultBatchSize)
}

// NewDispatcherWithBatchSize returns a dispatcher with an explicit batch
// size. Used directly by tests.
func NewDispatcherWithBatchSize(store Store, broadcaster Broadcaster, batchSize int) *Dispatcher {
	return &Dispatcher{store: store, broadcaster: broadcaster, batchSize: batchSize}
}

// Notify resolves the intent's audience, persists one row per recipient in
// batches, and publishes each persisted row to the broadcaster. It returns
// the number of rows written.
//
// A failed batch write aborts the remaining batches and propagates; batches
// already committed (and pushed) stay committed — partial delivery across
// batches is a known limitation, not silently hidden.
func (d *Dispatcher) Notify(ctx context.Context, intent Intent) (int, error) {
	// 1. --- Validate ---
	if intent.Title == "" {
		return 0, fmt.Errorf("notification title is required")
	}
	notifType := intent.Type
	if notifType == "" {
		notifType = models.NotificationTypeInfo
	}
	if !models.ValidNotificationType(notifType) {
		return 0, fmt.Errorf("invalid notification type %q", intent.Type)
	}

	// 2. --- Resolve Audience ---
	recipients, err := d.resolveAudience(ctx, intent)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		// No recipients: no writes, no publishes.
		return 0, nil
	}

	// 3. --- Persist in Batches, Then Push ---
	written := 0
	for start := 0; start < len(recipients); start += d.batchSize {
		end := start + d.batchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		now := time.Now()
		batch := make([]models.Notification, 0, end-start)
		for _, userID := range recipients[start:end] {
			batch = append(batch, models.Notification{
				ID:        uuid.NewString(),
				UserID:    userID,
				Title:     intent.Title,
				Message:   nullString(intent.Message),
				Type:      notifType,
				Link:      nullString(intent.Link),
				CreatedAt: now,
			})
		}

		if err := d.store.InsertNotifications(ctx, batch); err != nil {
			return written, fmt.Errorf("failed to persist notification batch: %w", err)
		}
		written += len(batch)

		// The batch is durable; now it may become visible.
		for i := range batch {
			d.broadcaster.Publish(batch[i].UserID, batch[i].Payload())
		}
	}

	return written, nil
}

// resolveAudience turns the intent's selector into a concrete recipient list.
// Duplicates in an explicit UserIDs list are passed through as given; callers
// own dedup.
func (d *Dispatcher) resolveAudience(ctx context.Context, intent Intent) ([]int64, error) {
	switch {
	case intent.UserID != 0:
		return []int64{intent.UserID}, nil
	case len(intent.UserIDs) > 0:
		return intent.UserIDs, nil
	case intent.AllUsers || intent.TargetRole == "all":
		return d.store.UserIDsByRole(ctx, "")
	case intent.TargetRole != "":
		switch intent.TargetRole {
		case models.RoleStudent, models.RoleInstructor, models.RoleAdmin:
			return d.store.UserIDsByRole(ctx, intent.TargetRole)
		default:
			return nil, fmt.Errorf("invalid target role %q", intent.TargetRole)
		}
	}
	return nil, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
