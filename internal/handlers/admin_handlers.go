package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/coursemint/coursemint-golang/internal/notify"
	"github.com/gin-gonic/gin"
)

//
// --- Admin Handlers ---
//

// SendNotification is the handler for POST /v1/admin/notifications.
// This is the HTTP intake for the dispatch service: one audience selector
// (userId, userIds, allUsers or targetRole) plus title/message/type/link.
func (h *Handlers) SendNotification(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var intent notify.Intent
	if err := c.ShouldBindJSON(&intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Dispatch ---
	sent, err := h.Dispatcher.Notify(c.Request.Context(), intent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"message": "Notification dispatched",
		"sent":    sent,
	})
}

// ApproveInstructor is the handler for PATCH /v1/admin/instructors/:id/approve.
func (h *Handlers) ApproveInstructor(c *gin.Context) {
	instructorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Instructor id must be a number"})
		return
	}

	result, err := h.DB.Exec(`
		UPDATE users SET status = 'active', updated_at = ?
		WHERE id = ? AND role = ? AND status = 'pending'`,
		time.Now(), instructorID, models.RoleInstructor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve instructor"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending instructor with that id"})
		return
	}

	// Tell them the good news on their next page load / live stream.
	_, _ = h.Dispatcher.Notify(c.Request.Context(), notify.Intent{
		UserID: instructorID,
		Title:  "Your instructor account has been approved",
		Type:   models.NotificationTypeSuccess,
		Link:   "/instructor/courses",
	})

	c.JSON(http.StatusOK, gin.H{"message": "Instructor approved"})
}

// GetDashboardStats is the handler for GET /v1/admin/dashboard-stats.
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	stats := gin.H{}

	counts := []struct {
		key   string
		query string
	}{
		{"totalUsers", "SELECT COUNT(*) FROM users"},
		{"totalCourses", "SELECT COUNT(*) FROM courses WHERE status = 'published'"},
		{"totalEnrollments", "SELECT COUNT(*) FROM enrollments"},
		{"totalOrders", "SELECT COUNT(*) FROM orders"},
		{"pendingInstructors", "SELECT COUNT(*) FROM users WHERE role = 'instructor' AND status = 'pending'"},
	}

	for _, count := range counts {
		var n int64
		if err := h.DB.QueryRow(count.query).Scan(&n); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute " + count.key})
			return
		}
		stats[count.key] = n
	}

	// Live stream connections on this process instance.
	stats["activeStreamConnections"] = h.Broadcaster.ActiveConnectionCount()

	c.JSON(http.StatusOK, stats)
}
