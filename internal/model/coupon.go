package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a discount code with eligibility rules and a usage counter.
// Codes are stored uppercase and unique.
type Coupon struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	Code            string           `json:"code" db:"code"`
	Description     string           `json:"description" db:"description"`
	Type            DiscountType     `json:"type" db:"type"`
	Value           decimal.Decimal  `json:"value" db:"value"`
	MaxDiscount     *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	MinOrderAmount  decimal.Decimal  `json:"minOrderAmount" db:"min_order_amount"`
	IsGlobal        bool             `json:"isGlobal" db:"is_global"`
	ApplicableShops []uuid.UUID      `json:"applicableShops,omitempty" db:"applicable_shops"`
	ValidFrom       time.Time        `json:"validFrom" db:"valid_from"`
	ValidUntil      time.Time        `json:"validUntil" db:"valid_until"`
	UsedCount       int              `json:"usedCount" db:"used_count"`
	IsActive        bool             `json:"isActive" db:"is_active"`
	CreatedBy       uuid.UUID        `json:"createdBy" db:"created_by"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
}

// ValidAt reports whether the instant falls inside the coupon's window.
func (c *Coupon) ValidAt(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidUntil)
}

// AppliesToShop reports whether the coupon covers the given shop.
func (c *Coupon) AppliesToShop(shopID uuid.UUID) bool {
	if c.IsGlobal {
		return true
	}
	for _, id := range c.ApplicableShops {
		if id == shopID {
			return true
		}
	}
	return false
}

// AppliedCoupon is the record of a coupon discount attached to a cart or
// an order's pricing snapshot.
type AppliedCoupon struct {
	Code     string          `json:"code" db:"coupon_code"`
	Discount decimal.Decimal `json:"discount" db:"coupon_discount"`
}
