package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/coursemint/coursemint-golang/internal/notify"
	"github.com/gin-gonic/gin"
)

//
// --- Checkout Handlers ---
//

// CheckoutInput is the payload for POST /v1/checkout.
type CheckoutInput struct {
	CourseID   int64  `json:"courseId" binding:"required"`
	CouponCode string `json:"couponCode"`
}

// Checkout is the handler for POST /v1/checkout.
// The gateway charge itself happens upstream; by the time this endpoint is
// called the payment has cleared, so the order lands as 'paid'. A retried
// request (network hiccup, double click) gets the same enrollment back
// instead of an error or a duplicate.
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Get Buyer ID ---
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	// 2. --- Bind & Validate JSON ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Begin Transaction ---
	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback() // Safety net

	// 4. --- Fetch the Course ---
	var courseTitle, courseSlug string
	var price float64
	err = tx.QueryRow(`
		SELECT title, slug, price FROM courses WHERE id = ? AND status = 'published'`,
		input.CourseID).Scan(&courseTitle, &courseSlug, &price)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found or not available for purchase"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch course"})
		return
	}

	// 5. --- Apply Coupon (Optional) ---
	total := price
	var couponCode sql.NullString
	if input.CouponCode != "" {
		coupon, err := h.lookupCoupon(tx, input.CouponCode)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired coupon code"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up coupon"})
			return
		}
		total = coupon.Apply(price)
		couponCode = sql.NullString{String: coupon.Code, Valid: true}
	}

	// 6. --- Record the Order ---
	orderResult, err := tx.Exec(`
		INSERT INTO orders (user_id, course_id, total, coupon_code, status, created_at)
		VALUES (?, ?, ?, ?, 'paid', ?)`,
		userID, input.CourseID, total, couponCode, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}
	orderID, _ := orderResult.LastInsertId()

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	// 7. --- Enroll (Idempotent) ---
	// The writer tolerates concurrent duplicate purchases: the unique index
	// on (user_id, course_id) decides the race and we accept either outcome.
	enrollResult, err := h.Enrollments.Enroll(c.Request.Context(), userID, input.CourseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Order recorded but enrollment failed"})
		return
	}

	// 8. --- Notify the Buyer ---
	// Best effort: a failed notification must not fail the purchase.
	if enrollResult.Created {
		_, err = h.Dispatcher.Notify(c.Request.Context(), notify.Intent{
			UserID: userID,
			Title:  fmt.Sprintf("You're enrolled in %s", courseTitle),
			Type:   models.NotificationTypeSuccess,
			Link:   "/courses/" + courseSlug,
		})
		if err != nil {
			log.Printf("checkout: failed to send enrollment notification: %v", err)
		}
	}

	// 9. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message":         "Purchase complete",
		"orderId":         orderID,
		"totalPaid":       total,
		"enrollmentId":    enrollResult.EnrollmentID,
		"alreadyEnrolled": !enrollResult.Created,
	})
}

// lookupCoupon fetches an active, unexpired coupon by code.
func (h *Handlers) lookupCoupon(tx *sql.Tx, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := tx.QueryRow(`
		SELECT id, code, discount_type, amount, expires_at, active, created_at
		FROM coupons WHERE code = ? AND active = 1`,
		code).Scan(&coupon.ID, &coupon.Code, &coupon.DiscountType, &coupon.Amount,
		&coupon.ExpiresAt, &coupon.Active, &coupon.CreatedAt)
	if err != nil {
		return nil, err
	}
	if coupon.ExpiresAt.Valid && coupon.ExpiresAt.Time.Before(time.Now()) {
		return nil, sql.ErrNoRows
	}
	return &coupon, nil
}

//
// --- Enrollment Retrieval ---
//

// GetMyEnrollments is the handler for GET /v1/enrollments/me.
func (h *Handlers) GetMyEnrollments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	query := `
		SELECT e.id, e.user_id, e.course_id, e.created_at, c.title, c.slug
		FROM enrollments e
		JOIN courses c ON e.course_id = c.id
		WHERE e.user_id = ?
		ORDER BY e.created_at DESC`
	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	type enrollmentDetail struct {
		models.Enrollment
		CourseTitle string `json:"courseTitle"`
		CourseSlug  string `json:"courseSlug"`
	}

	enrollments := []enrollmentDetail{}
	for rows.Next() {
		var e enrollmentDetail
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.CreatedAt, &e.CourseTitle, &e.CourseSlug); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan enrollment row"})
			return
		}
		enrollments = append(enrollments, e)
	}

	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}
