package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coursemint/coursemint-golang/internal/database"
	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/coursemint/coursemint-golang/internal/notify"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// --- Certificate Handlers ---
//

// ClaimCertificateInput is the payload for POST /v1/certificates/claim.
type ClaimCertificateInput struct {
	CourseID int64 `json:"courseId" binding:"required"`
}

// ClaimCertificate is the handler for POST /v1/certificates/claim.
// Requires an enrollment. Claiming twice returns the same certificate: the
// UNIQUE(user_id, course_id) index decides, same pattern as enrollments.
func (h *Handlers) ClaimCertificate(c *gin.Context) {
	// 1. --- Get IDs ---
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	var input ClaimCertificateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	courseID := input.CourseID

	// 2. --- Verify Enrollment ---
	var courseTitle string
	err := h.DB.QueryRow(`
		SELECT c.title
		FROM enrollments e
		JOIN courses c ON e.course_id = c.id
		WHERE e.user_id = ? AND e.course_id = ?`,
		userID, courseID).Scan(&courseTitle)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not enrolled in this course"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	// 3. --- Insert or Return Existing ---
	id := uuid.NewString()
	serial := newCertificateSerial()
	_, err = h.DB.Exec(`
		INSERT INTO certificates (id, user_id, course_id, serial, issued_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, courseID, serial, time.Now())
	if err != nil {
		if !database.IsDuplicateEntry(err) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue certificate"})
			return
		}
		// Already claimed: hand back the existing one.
		err = h.DB.QueryRow(`
			SELECT id, serial FROM certificates WHERE user_id = ? AND course_id = ?`,
			userID, courseID).Scan(&id, &serial)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up existing certificate"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "Certificate already issued",
			"certificateId": id,
			"serial":        serial,
		})
		return
	}

	// 4. --- Notify ---
	_, _ = h.Dispatcher.Notify(c.Request.Context(), notify.Intent{
		UserID: userID,
		Title:  fmt.Sprintf("Certificate issued for %s", courseTitle),
		Type:   models.NotificationTypeSuccess,
		Link:   "/certificates/" + serial,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Certificate issued",
		"certificateId": id,
		"serial":        serial,
	})
}

// VerifyCertificate is the handler for GET /v1/certificates/:serial.
// Public: employers paste the serial to confirm a certificate is genuine.
func (h *Handlers) VerifyCertificate(c *gin.Context) {
	serial := c.Param("serial")

	var cert models.Certificate
	var holderName, courseTitle string
	err := h.DB.QueryRow(`
		SELECT ct.id, ct.user_id, ct.course_id, ct.serial, ct.issued_at, u.full_name, co.title
		FROM certificates ct
		JOIN users u ON ct.user_id = u.id
		JOIN courses co ON ct.course_id = co.id
		WHERE ct.serial = ?`,
		serial).Scan(&cert.ID, &cert.UserID, &cert.CourseID, &cert.Serial, &cert.IssuedAt,
		&holderName, &courseTitle)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Certificate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"serial":      cert.Serial,
		"holderName":  holderName,
		"courseTitle": courseTitle,
		"issuedAt":    cert.IssuedAt,
	})
}

// newCertificateSerial builds the short public code, e.g. "CM-1A2B3C4D".
func newCertificateSerial() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CM-" + raw[:8]
}
