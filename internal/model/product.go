package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType distinguishes percentage discounts from flat amounts.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is an optional, time-bounded price reduction on a product.
// Nil start/end bounds are open-ended.
type Discount struct {
	Type      DiscountType    `json:"type" db:"discount_type"`
	Value     decimal.Decimal `json:"value" db:"discount_value"`
	StartDate *time.Time      `json:"startDate,omitempty" db:"discount_start"`
	EndDate   *time.Time      `json:"endDate,omitempty" db:"discount_end"`
}

// ActiveAt reports whether the discount applies at the given instant.
func (d *Discount) ActiveAt(now time.Time) bool {
	if d == nil || !d.Value.IsPositive() {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// Variant is a priced, separately-stocked sub-item of a product, e.g. a
// size option.
type Variant struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	ProductID   uuid.UUID       `json:"-" db:"product_id"`
	Name        string          `json:"name" db:"name"`
	Value       string          `json:"value" db:"value"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	IsAvailable bool            `json:"isAvailable" db:"is_available"`
}

// Product is a catalogue entry. Stock is the contended counter the order
// lifecycle debits and credits; it never goes negative.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	ShopID      uuid.UUID       `json:"shopId" db:"shop_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Category    string          `json:"category" db:"category"`
	Images      []string        `json:"images" db:"images"`
	Unit        string          `json:"unit,omitempty" db:"unit"`
	UnitValue   float64         `json:"unitValue,omitempty" db:"unit_value"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	IsAvailable bool            `json:"isAvailable" db:"is_available"`
	Discount    *Discount       `json:"discount,omitempty"`
	Variants    []Variant       `json:"variants,omitempty"`
	IsDeleted   bool            `json:"-" db:"is_deleted"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// VariantByID returns the matching variant or nil.
func (p *Product) VariantByID(id uuid.UUID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// PrimaryImage returns the first catalogue image, or empty.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
