// Package pricing is the pure computation core for money amounts. It is
// invoked when mutating the cart and again, authoritatively, at order
// creation; client-supplied prices and totals are never trusted.
package pricing

import (
	"time"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine rates are fixed constants, not per-shop configuration.
var (
	taxRate         = decimal.NewFromFloat(0.05)
	platformFeeRate = decimal.NewFromFloat(0.02)
	hundred         = decimal.NewFromInt(100)
)

// ResolveUnitPrice returns the authoritative unit price for a product or
// one of its variants, validating availability and stock for the
// requested quantity. The matched variant is returned so callers can
// snapshot its name and value.
func ResolveUnitPrice(product *model.Product, variantID *uuid.UUID, quantity int) (decimal.Decimal, *model.Variant, error) {
	if !product.IsAvailable {
		return decimal.Zero, nil, model.ErrProductUnavailable
	}

	if variantID != nil {
		variant := product.VariantByID(*variantID)
		if variant == nil {
			return decimal.Zero, nil, model.ErrVariantNotFound
		}
		if !variant.IsAvailable {
			return decimal.Zero, nil, model.ErrVariantUnavailable
		}
		if variant.Stock < quantity {
			return decimal.Zero, nil, model.ErrInsufficientStock
		}
		return variant.Price, variant, nil
	}

	if product.Stock < quantity {
		return decimal.Zero, nil, model.ErrInsufficientStock
	}
	return product.Price, nil, nil
}

// ResolveItemDiscount returns the per-unit discount for a product whose
// discount window covers now. Open start/end bounds are unbounded.
func ResolveItemDiscount(product *model.Product, unitPrice decimal.Decimal, now time.Time) decimal.Decimal {
	d := product.Discount
	if !d.ActiveAt(now) {
		return decimal.Zero
	}
	if d.Type == model.DiscountPercentage {
		return unitPrice.Mul(d.Value).Div(hundred)
	}
	return d.Value
}

// FinalPrice clamps unitPrice - discount at zero. A discount never makes
// an item's price negative.
func FinalPrice(unitPrice, discount decimal.Decimal) decimal.Decimal {
	final := unitPrice.Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// ResolveCouponDiscount evaluates coupon eligibility against a subtotal
// and shop at the given instant. An ineligible or nil coupon yields a
// zero discount and applied=false; it is not an error, a bad coupon
// degrades gracefully rather than blocking the order.
func ResolveCouponDiscount(coupon *model.Coupon, subtotal decimal.Decimal, shopID uuid.UUID, now time.Time) (decimal.Decimal, bool) {
	if coupon == nil || !coupon.IsActive {
		return decimal.Zero, false
	}
	if !coupon.ValidAt(now) {
		return decimal.Zero, false
	}
	if subtotal.LessThan(coupon.MinOrderAmount) {
		return decimal.Zero, false
	}
	if !coupon.AppliesToShop(shopID) {
		return decimal.Zero, false
	}

	return CouponDiscount(coupon, subtotal), true
}

// CouponDiscount is the raw discount formula: percentage of subtotal
// capped at maxDiscount, or the fixed value. Eligibility is the
// caller's problem.
func CouponDiscount(coupon *model.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon.Type == model.DiscountPercentage {
		discount := subtotal.Mul(coupon.Value).Div(hundred)
		if coupon.MaxDiscount != nil && discount.GreaterThan(*coupon.MaxDiscount) {
			discount = *coupon.MaxDiscount
		}
		return discount
	}
	return coupon.Value
}

// ComputeTotals assembles the final pricing breakdown: 5% tax and 2%
// platform fee on the subtotal, the shop's delivery fee, minus the coupon
// discount, clamped at zero.
func ComputeTotals(subtotal, deliveryFee, couponDiscount decimal.Decimal) model.Pricing {
	tax := subtotal.Mul(taxRate)
	platformFee := subtotal.Mul(platformFeeRate)

	total := subtotal.Add(tax).Add(deliveryFee).Add(platformFee).Sub(couponDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return model.Pricing{
		Subtotal:    subtotal,
		Discount:    couponDiscount,
		Tax:         tax,
		DeliveryFee: deliveryFee,
		PlatformFee: platformFee,
		Total:       total,
	}
}

// CartTax returns the tax component shown on a cart (same 5% rate the
// order totals use).
func CartTax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRate)
}
