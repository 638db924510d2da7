// Package realtime implements the process-wide pub/sub registry that feeds
// live notification streams. It is a single-node fan-out primitive: a client
// attached to a different process instance will not receive pushes from this
// one, and falls back to polling the durable notifications table.
package realtime

import (
	"errors"
	"sync"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/google/uuid"
)

// Default connection limits. The per-user cap keeps reconnect storms (browser
// tabs, flaky mobile clients) from piling up stale subscriptions; the global
// cap bounds total memory held by the registry.
const (
	DefaultMaxPerUser = 3
	DefaultMaxTotal   = 500
)

// ErrTooManyConnections is returned by Subscribe when the global connection
// cap is reached.
var ErrTooManyConnections = errors.New("too many active connections")

// DeliverFunc receives one notification payload for one subscriber.
// Invocations happen synchronously inside Publish; a panicking callback only
// loses its own delivery, never anyone else's.
type DeliverFunc func(models.NotificationPayload)

// subscriber pairs a delivery callback with an opaque token so removal does
// not depend on function-value identity.
type subscriber struct {
	token   string
	deliver DeliverFunc
}

// Broadcaster maps a user ID to that user's live subscribers and fans
// published notifications out to them. Construct one per process and share
// it; all methods are safe for concurrent use.
type Broadcaster struct {
	mu         sync.Mutex
	subs       map[int64][]subscriber // append order = subscription age, oldest first
	total      int
	maxPerUser int
	maxTotal   int
}

// NewBroadcaster returns a broadcaster with the default connection limits.
func NewBroadcaster() *Broadcaster {
	return NewBroadcasterWithLimits(DefaultMaxPerUser, DefaultMaxTotal)
}

// NewBroadcasterWithLimits returns a broadcaster with explicit per-user and
// global connection caps. Used directly by tests.
func NewBroadcasterWithLimits(maxPerUser, maxTotal int) *Broadcaster {
	return &Broadcaster{
		subs:       make(map[int64][]subscriber),
		maxPerUser: maxPerUser,
		maxTotal:   maxTotal,
	}
}

// Subscribe registers deliver under userID and returns an unsubscribe
// function. If the user is already at the per-user cap, the oldest
// subscription for that user is evicted first (newest connections win). If
// the global cap is reached, Subscribe fails with ErrTooManyConnections and
// nothing is registered.
func (b *Broadcaster) Subscribe(userID int64, deliver DeliverFunc) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Evict the oldest subscription for this user if they are at the cap.
	if list := b.subs[userID]; len(list) >= b.maxPerUser {
		b.subs[userID] = list[1:]
		b.total--
		metricActiveConnections.Dec()
	}

	if b.total >= b.maxTotal {
		return nil, ErrTooManyConnections
	}

	token := uuid.NewString()
	b.subs[userID] = append(b.subs[userID], subscriber{token: token, deliver: deliver})
	b.total++
	metricActiveConnections.Inc()

	// The disposer removes exactly this subscription. Safe to call more than
	// once, and after the subscription was already evicted.
	return func() { b.unsubscribe(userID, token) }, nil
}

func (b *Broadcaster) unsubscribe(userID int64, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[userID]
	for i, s := range list {
		if s.token == token {
			b.subs[userID] = append(list[:i], list[i+1:]...)
			b.total--
			metricActiveConnections.Dec()
			break
		}
	}
	if len(b.subs[userID]) == 0 {
		delete(b.subs, userID)
	}
}

// Publish delivers payload to every live subscriber for userID. Zero
// subscribers is a no-op. Callbacks run outside the registry lock (a callback
// may itself unsubscribe), and each invocation is failure-isolated: one
// panicking subscriber does not block delivery to the rest.
func (b *Broadcaster) Publish(userID int64, payload models.NotificationPayload) {
	b.mu.Lock()
	targets := make([]subscriber, len(b.subs[userID]))
	copy(targets, b.subs[userID])
	b.mu.Unlock()

	for _, s := range targets {
		safeDeliver(s.deliver, payload)
	}
	if len(targets) > 0 {
		metricPublished.Add(float64(len(targets)))
	}
}

// PublishToMany publishes payload once per user ID. There is no atomicity
// across recipients; a dead subscriber for one user never blocks another.
func (b *Broadcaster) PublishToMany(userIDs []int64, payload models.NotificationPayload) {
	for _, id := range userIDs {
		b.Publish(id, payload)
	}
}

// ActiveConnectionCount returns the number of registered subscriptions across
// all users.
func (b *Broadcaster) ActiveConnectionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// safeDeliver swallows panics from a single callback. Closed connections
// panic frequently and are expected; cleanup happens on the subscriber's own
// cancellation path.
func safeDeliver(deliver DeliverFunc, payload models.NotificationPayload) {
	defer func() {
		_ = recover()
	}()
	deliver(payload)
}
