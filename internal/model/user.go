package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what a principal is allowed to do.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RolePartner  Role = "delivery_partner"
	RoleAdmin    Role = "admin"
)

// User is the identity record owned by the auth collaborator. Only the
// fields the marketplace reads are modelled here.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Address is an entry in a user's address book. Orders copy it at
// creation time rather than referencing it.
type Address struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"-" db:"user_id"`
	AddressLine1 string    `json:"addressLine1" db:"address_line1"`
	AddressLine2 string    `json:"addressLine2,omitempty" db:"address_line2"`
	City         string    `json:"city" db:"city"`
	State        string    `json:"state" db:"state"`
	Pincode      string    `json:"pincode" db:"pincode"`
	Landmark     string    `json:"landmark,omitempty" db:"landmark"`
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
}
