package models

import (
	"database/sql"
	"time"
)

// Order is the model for the 'orders' table. One order buys one course; the
// actual card/gateway charge happens outside this service, so orders land
// here already marked 'paid'.
type Order struct {
	ID         int64          `json:"id" db:"id"`
	UserID     int64          `json:"userId" db:"user_id"`
	CourseID   int64          `json:"courseId" db:"course_id"`
	Total      float64        `json:"total" db:"total"`
	CouponCode sql.NullString `json:"couponCode,omitempty" db:"coupon_code"`
	Status     string         `json:"status" db:"status"` // paid, refunded
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
}
