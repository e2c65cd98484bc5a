package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a priced line in a cart. Price, discount and finalPrice are
// a cached resolution of the live product; they are re-resolved on every
// mutation, never trusted at order time.
type CartItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	CartID       uuid.UUID       `json:"-" db:"cart_id"`
	ProductID    uuid.UUID       `json:"productId" db:"product_id"`
	ShopID       uuid.UUID       `json:"shopId" db:"shop_id"`
	Name         string          `json:"name" db:"name"`
	Image        string          `json:"image,omitempty" db:"image"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	VariantID    *uuid.UUID      `json:"variantId,omitempty" db:"variant_id"`
	VariantName  string          `json:"variantName,omitempty" db:"variant_name"`
	VariantValue string          `json:"variantValue,omitempty" db:"variant_value"`
	Unit         string          `json:"unit,omitempty" db:"unit"`
	UnitValue    float64         `json:"unitValue,omitempty" db:"unit_value"`
	Discount     decimal.Decimal `json:"discount" db:"discount"`
	FinalPrice   decimal.Decimal `json:"finalPrice" db:"final_price"`
	AddedAt      time.Time       `json:"addedAt" db:"added_at"`
}

// LineTotal is finalPrice * quantity.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.FinalPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Matches reports whether the item is the same product+variant line.
func (i *CartItem) Matches(productID uuid.UUID, variantID *uuid.UUID) bool {
	if i.ProductID != productID {
		return false
	}
	if i.VariantID == nil && variantID == nil {
		return true
	}
	if i.VariantID == nil || variantID == nil {
		return false
	}
	return *i.VariantID == *variantID
}

// Cart is the per-user mutable item collection. One cart per user,
// created lazily, emptied but never deleted. Totals are always a pure
// function of items + coupon + deliveryFee, recomputed before every save.
type Cart struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"userId" db:"user_id"`
	Items         []CartItem      `json:"items"`
	TotalItems    int             `json:"totalItems" db:"total_items"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	Tax           decimal.Decimal `json:"tax" db:"tax"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	Total         decimal.Decimal `json:"total" db:"total"`
	AppliedCoupon *AppliedCoupon  `json:"appliedCoupon,omitempty"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// ShopGroup is a read-side partition of cart items belonging to one shop.
type ShopGroup struct {
	ShopID   uuid.UUID       `json:"shopId"`
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// GroupByShop partitions the cart's items by shop, preserving item order.
func (c *Cart) GroupByShop() []ShopGroup {
	index := make(map[uuid.UUID]int)
	var groups []ShopGroup

	for _, item := range c.Items {
		i, ok := index[item.ShopID]
		if !ok {
			i = len(groups)
			index[item.ShopID] = i
			groups = append(groups, ShopGroup{ShopID: item.ShopID, Subtotal: decimal.Zero})
		}
		groups[i].Items = append(groups[i].Items, item)
		groups[i].Subtotal = groups[i].Subtotal.Add(item.LineTotal())
	}

	return groups
}
