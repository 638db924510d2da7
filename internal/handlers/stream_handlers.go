package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// heartbeatInterval is how often the stream emits a comment line to keep
// idle connections alive through proxies. Not configurable per connection.
const heartbeatInterval = 30 * time.Second

// StreamNotifications is the handler for GET /v1/notifications/stream.
// It bridges one authenticated connection to the broadcaster as a
// Server-Sent-Events stream:
//
//	event: connected     -> {"userId": ...} immediately on connect
//	event: notification  -> one per published NotificationPayload
//	event: error         -> capacity failure, then the stream closes cleanly
//	: ping               -> heartbeat comment every 30s
func (h *Handlers) StreamNotifications(c *gin.Context) {
	// 1. --- Require an Identity ---
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	// 2. --- Declare the Stream ---
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	// Tell nginx and friends not to buffer us.
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	// 3. --- Confirm the Connection ---
	sse.Encode(c.Writer, sse.Event{Event: "connected", Data: gin.H{"userId": userID}})
	flusher.Flush()

	// 4. --- Subscribe to the Broadcaster ---
	// The callback never blocks: it drops into a buffered channel and lets a
	// lagging client lose events rather than stall the publisher.
	events := make(chan models.NotificationPayload, 16)
	unsubscribe, err := h.Broadcaster.Subscribe(userID, func(p models.NotificationPayload) {
		select {
		case events <- p:
		default:
			// Client is too slow; drop.
		}
	})
	if err != nil {
		// Capacity exceeded: a graceful terminal event, not a hard reset.
		sse.Encode(c.Writer, sse.Event{Event: "error", Data: gin.H{"error": err.Error()}})
		flusher.Flush()
		return
	}
	defer unsubscribe()

	// 5. --- Pump Events Until Disconnect ---
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case payload := <-events:
			if err := sse.Encode(c.Writer, sse.Event{Event: "notification", Data: payload}); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			// Failures here mean the connection is already gone; cleanup
			// happens on the cancellation path below, not here.
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
