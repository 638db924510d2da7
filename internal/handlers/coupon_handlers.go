package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/coursemint/coursemint-golang/internal/database"
	"github.com/coursemint/coursemint-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Coupon Handlers ---
//

// CreateCouponInput is the payload for POST /v1/admin/coupons.
type CreateCouponInput struct {
	Code         string  `json:"code" binding:"required"`
	DiscountType string  `json:"discountType" binding:"required,oneof=percent fixed"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	ExpiresAt    string  `json:"expiresAt"` // RFC 3339; empty = never expires
}

// CreateCoupon is the handler for POST /v1/admin/coupons.
func (h *Handlers) CreateCoupon(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Percent discounts over 100 would produce negative prices.
	if input.DiscountType == models.DiscountPercent && input.Amount > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Percent discount cannot exceed 100"})
		return
	}

	var expiresAt sql.NullTime
	if input.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, input.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expiresAt must be RFC 3339"})
			return
		}
		expiresAt = sql.NullTime{Time: parsed, Valid: true}
	}

	// 2. --- Save to Database ---
	result, err := h.DB.Exec(`
		INSERT INTO coupons (code, discount_type, amount, expires_at, active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		input.Code, input.DiscountType, input.Amount, expiresAt, time.Now())
	if err != nil {
		if database.IsDuplicateEntry(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A coupon with this code already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create coupon"})
		return
	}
	couponID, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Coupon created",
		"couponId": couponID,
	})
}

// ValidateCoupon is the handler for GET /v1/coupons/validate?code=X&courseId=N.
// Public: the storefront calls this to preview the discounted price.
func (h *Handlers) ValidateCoupon(c *gin.Context) {
	code := c.Query("code")
	courseIDStr := c.Query("courseId")
	if code == "" || courseIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and courseId query parameters are required"})
		return
	}
	courseID, err := strconv.ParseInt(courseIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId must be a number"})
		return
	}

	// 1. --- Fetch the Course Price ---
	var price float64
	err = h.DB.QueryRow(`SELECT price FROM courses WHERE id = ? AND status = 'published'`, courseID).Scan(&price)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	// 2. --- Fetch the Coupon ---
	var coupon models.Coupon
	err = h.DB.QueryRow(`
		SELECT id, code, discount_type, amount, expires_at, active, created_at
		FROM coupons WHERE code = ? AND active = 1`,
		code).Scan(&coupon.ID, &coupon.Code, &coupon.DiscountType, &coupon.Amount,
		&coupon.ExpiresAt, &coupon.Active, &coupon.CreatedAt)
	if err != nil || (coupon.ExpiresAt.Valid && coupon.ExpiresAt.Time.Before(time.Now())) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired coupon code"})
		return
	}

	// 3. --- Send the Discounted Price ---
	c.JSON(http.StatusOK, gin.H{
		"code":            coupon.Code,
		"originalPrice":   price,
		"discountedPrice": coupon.Apply(price),
	})
}

// DeactivateExpiredCoupons flips active=0 on coupons past their expiry.
// Called by the background worker, not a route.
func (h *Handlers) DeactivateExpiredCoupons() {
	result, err := h.DB.Exec(`
		UPDATE coupons SET active = 0
		WHERE active = 1 AND expires_at IS NOT NULL AND expires_at < ?`, time.Now())
	if err != nil {
		log.Printf("coupon sweep failed: %v", err)
		return
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		log.Printf("coupon sweep deactivated %d expired coupons", n)
	}
}
