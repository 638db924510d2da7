package models

import (
	"database/sql"
	"time"
)

// Coupon discount types.
const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

// Coupon is the model for the 'coupons' table.
type Coupon struct {
	ID           int64        `json:"id" db:"id"`
	Code         string       `json:"code" db:"code"`
	DiscountType string       `json:"discountType" db:"discount_type"`
	Amount       float64      `json:"amount" db:"amount"`
	ExpiresAt    sql.NullTime `json:"expiresAt,omitempty" db:"expires_at"`
	Active       bool         `json:"active" db:"active"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}

// Apply returns the price after this coupon's discount, floored at zero.
func (cp *Coupon) Apply(price float64) float64 {
	var discounted float64
	switch cp.DiscountType {
	case DiscountPercent:
		discounted = price * (1 - cp.Amount/100)
	case DiscountFixed:
		discounted = price - cp.Amount
	default:
		return price
	}
	if discounted < 0 {
		return 0
	}
	return discounted
}
