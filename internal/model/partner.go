package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryPartner is the courier actor. isAvailable flips to false while
// a delivery is assigned and back to true on completion.
type DeliveryPartner struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	UserID              uuid.UUID  `json:"userId" db:"user_id"`
	Name                string     `json:"name" db:"name"`
	Email               string     `json:"email" db:"email"`
	Phone               string     `json:"phone" db:"phone"`
	VehicleType         string     `json:"vehicleType" db:"vehicle_type"`
	VehicleNumber       string     `json:"vehicleNumber" db:"vehicle_number"`
	DrivingLicense      string     `json:"drivingLicense,omitempty" db:"driving_license"`
	IsVerified          bool       `json:"isVerified" db:"is_verified"`
	IsAvailable         bool       `json:"isAvailable" db:"is_available"`
	IsOnline            bool       `json:"isOnline" db:"is_online"`
	Latitude            *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude           *float64   `json:"longitude,omitempty" db:"longitude"`
	LastLocationUpdate  *time.Time `json:"lastLocationUpdate,omitempty" db:"last_location_update"`
	RatingAverage       float64    `json:"ratingAverage" db:"rating_average"`
	RatingCount         int        `json:"ratingCount" db:"rating_count"`
	TotalDeliveries     int        `json:"totalDeliveries" db:"total_deliveries"`
	CompletedDeliveries int        `json:"completedDeliveries" db:"completed_deliveries"`
	IsDeleted           bool       `json:"-" db:"is_deleted"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`
}

// Location returns the partner's last known position, or nil if it was
// never reported.
func (p *DeliveryPartner) Location() *GeoPoint {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &GeoPoint{Latitude: *p.Latitude, Longitude: *p.Longitude}
}

// Earnings is a rolling aggregate derived from the per-delivery earning
// event log at read time. The buckets are not stored counters.
type Earnings struct {
	Today     decimal.Decimal `json:"today"`
	ThisWeek  decimal.Decimal `json:"thisWeek"`
	ThisMonth decimal.Decimal `json:"thisMonth"`
	Total     decimal.Decimal `json:"total"`
}

// PartnerFilter narrows the admin partner listing.
type PartnerFilter struct {
	Search      string
	IsVerified  *bool
	IsAvailable *bool
	Page        int
	Limit       int
}
