package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the enumerated progression an order moves through.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReadyForPickup OrderStatus = "ready_for_pickup"
	StatusAssigned       OrderStatus = "assigned_to_delivery"
	StatusPickedUp       OrderStatus = "picked_up"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// statusTransitions is the authoritative transition table. Anything not
// listed here is rejected with InvalidState.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReadyForPickup, StatusCancelled},
	StatusReadyForPickup: {StatusAssigned, StatusCancelled},
	StatusAssigned:       {StatusPickedUp, StatusCancelled},
	StatusPickedUp:       {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from s.
func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0 && s.Valid()
}

// IsCancellable reports whether an order in this status may still be
// cancelled. Once out for delivery the goods are in transit and
// cancellation is blocked.
func (s OrderStatus) IsCancellable() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusOutForDelivery:
		return false
	}
	return s.Valid()
}

// PaymentMethod enumerates how an order is paid.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
	PaymentWallet PaymentMethod = "wallet"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentOnline, PaymentWallet:
		return true
	}
	return false
}

// PaymentStatus is a passive field set by trusted callers.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// CancelParty records who cancelled an order.
type CancelParty string

const (
	CancelledByCustomer CancelParty = "customer"
	CancelledByShop     CancelParty = "shop"
	CancelledByAdmin    CancelParty = "admin"
)

// OrderItem is a frozen copy of the product at order time. Later catalog
// changes never touch it.
type OrderItem struct {
	ID           uuid.UUID       `json:"-" db:"id"`
	OrderID      uuid.UUID       `json:"-" db:"order_id"`
	ProductID    uuid.UUID       `json:"productId" db:"product_id"`
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
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Pricing is the authoritative breakdown snapshotted at creation.
type Pricing struct {
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount    decimal.Decimal `json:"discount" db:"discount"`
	Tax         decimal.Decimal `json:"tax" db:"tax"`
	DeliveryFee decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	PlatformFee decimal.Decimal `json:"platformFee" db:"platform_fee"`
	Total       decimal.Decimal `json:"total" db:"total"`
}

// StatusChange is one append-only entry in an order's history.
type StatusChange struct {
	Status    OrderStatus `json:"status" db:"status"`
	Timestamp time.Time   `json:"timestamp" db:"changed_at"`
	Note      string      `json:"note,omitempty" db:"note"`
}

// GeoPoint is a named-field coordinate pair as exposed over the API.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Order is the lifecycle aggregate. OrderNumber and the pricing snapshot
// are immutable once set; statusHistory only ever grows.
type Order struct {
	ID                   uuid.UUID      `json:"id" db:"id"`
	OrderNumber          string         `json:"orderNumber" db:"order_number"`
	UserID               uuid.UUID      `json:"userId" db:"user_id"`
	ShopID               uuid.UUID      `json:"shopId" db:"shop_id"`
	Items                []OrderItem    `json:"items"`
	DeliveryAddress      Address        `json:"deliveryAddress"`
	ContactNumber        string         `json:"contactNumber" db:"contact_number"`
	Pricing              Pricing        `json:"pricing"`
	CouponApplied        *AppliedCoupon `json:"couponApplied,omitempty"`
	PaymentMethod        PaymentMethod  `json:"paymentMethod" db:"payment_method"`
	PaymentStatus        PaymentStatus  `json:"paymentStatus" db:"payment_status"`
	OrderStatus          OrderStatus    `json:"orderStatus" db:"order_status"`
	SpecialInstructions  string         `json:"specialInstructions,omitempty" db:"special_instructions"`
	StatusHistory        []StatusChange `json:"statusHistory"`
	DeliveryPartnerID    *uuid.UUID     `json:"deliveryPartnerId,omitempty" db:"delivery_partner_id"`
	DeliveryPartnerName  string         `json:"deliveryPartnerName,omitempty" db:"delivery_partner_name"`
	DeliveryPartnerPhone string         `json:"deliveryPartnerPhone,omitempty" db:"delivery_partner_phone"`
	PartnerLocation      *GeoPoint      `json:"deliveryPartnerLocation,omitempty"`
	AssignedAt           *time.Time     `json:"assignedAt,omitempty" db:"assigned_at"`
	PickedUpAt           *time.Time     `json:"pickedUpAt,omitempty" db:"picked_up_at"`
	EstimatedDelivery    *time.Time     `json:"estimatedDeliveryTime,omitempty" db:"estimated_delivery"`
	ActualDelivery       *time.Time     `json:"actualDeliveryTime,omitempty" db:"actual_delivery"`
	CancellationReason   string         `json:"cancellationReason,omitempty" db:"cancellation_reason"`
	CancelledBy          CancelParty    `json:"cancelledBy,omitempty" db:"cancelled_by"`
	CancelledAt          *time.Time     `json:"cancelledAt,omitempty" db:"cancelled_at"`
	CreatedAt            time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time      `json:"updatedAt" db:"updated_at"`
}

// OrderItemRequest is one requested line in an order placement.
type OrderItemRequest struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity"`
}

// OrderRequest is the payload for placing an order. Prices are never
// taken from it; the pricing engine re-derives everything server-side.
type OrderRequest struct {
	ShopID              uuid.UUID          `json:"shopId"`
	Items               []OrderItemRequest `json:"items"`
	DeliveryAddressID   uuid.UUID          `json:"deliveryAddressId"`
	ContactNumber       string             `json:"contactNumber,omitempty"`
	PaymentMethod       PaymentMethod      `json:"paymentMethod"`
	CouponCode          *string            `json:"couponCode,omitempty"`
	SpecialInstructions string             `json:"specialInstructions,omitempty"`
}
