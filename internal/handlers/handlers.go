package handlers

import (
	"database/sql"

	"github.com/coursemint/coursemint-golang/internal/ai"
	"github.com/coursemint/coursemint-golang/internal/enrollment"
	"github.com/coursemint/coursemint-golang/internal/notify"
	"github.com/coursemint/coursemint-golang/internal/realtime"
	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB          *sql.DB               // Primary Read/Write connection
	Broadcaster *realtime.Broadcaster // Live notification fan-out
	Dispatcher  *notify.Dispatcher    // Durable + live notification delivery
	Enrollments *enrollment.Writer    // Idempotent enroll-on-purchase
	AIService   *ai.AIService         // Optional: nil when GEMINI_API_KEY is unset
}

// currentUserID pulls the authenticated user's ID set by AuthMiddleware.
func currentUserID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := raw.(int64)
	return id, ok
}
