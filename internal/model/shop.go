package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shop is a merchant storefront with a fixed location and delivery zone.
// Coordinates are stored as [longitude, latitude] columns; the API surface
// speaks latitude/longitude named fields. Keep the two straight.
type Shop struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	OwnerID            uuid.UUID       `json:"ownerId" db:"owner_id"`
	Name               string          `json:"name" db:"name"`
	Description        string          `json:"description,omitempty" db:"description"`
	AddressLine1       string          `json:"addressLine1" db:"address_line1"`
	AddressLine2       string          `json:"addressLine2,omitempty" db:"address_line2"`
	City               string          `json:"city" db:"city"`
	State              string          `json:"state" db:"state"`
	Pincode            string          `json:"pincode" db:"pincode"`
	ContactNumber      string          `json:"contactNumber" db:"contact_number"`
	Email              string          `json:"email" db:"email"`
	Categories         []string        `json:"categories" db:"categories"`
	Longitude          float64         `json:"longitude" db:"longitude"`
	Latitude           float64         `json:"latitude" db:"latitude"`
	IsActive           bool            `json:"isActive" db:"is_active"`
	IsVerified         bool            `json:"isVerified" db:"is_verified"`
	RatingAverage      float64         `json:"ratingAverage" db:"rating_average"`
	RatingCount        int             `json:"ratingCount" db:"rating_count"`
	DeliveryRadiusKm   float64         `json:"deliveryRadiusKm" db:"delivery_radius_km"`
	MinimumOrderAmount decimal.Decimal `json:"minimumOrderAmount" db:"minimum_order_amount"`
	DeliveryFee        decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	EstimatedMinutes   int             `json:"estimatedDeliveryMinutes" db:"estimated_minutes"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time       `json:"updatedAt" db:"updated_at"`
}

// NearbyShop annotates a shop with its distance from a query point.
// Shops outside their own delivery radius are still listed, flagged
// non-deliverable; hiding them is the caller's decision.
type NearbyShop struct {
	Shop
	DistanceKm        float64 `json:"distanceKm"`
	IsInDeliveryRange bool    `json:"isInDeliveryRange"`
}

// NearbyFilter narrows a nearby-shop query.
type NearbyFilter struct {
	Categories []string
	MinRating  float64
	Limit      int
}
