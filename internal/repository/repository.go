package repository

import (
	"context"
	"time"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository reads the identity records the marketplace depends on.
// User lifecycle itself belongs to the auth collaborator.
type UserRepository interface {
	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetAddress retrieves one address from a user's address book.
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error)
}

// ShopRepository defines the interface for shop data access operations.
type ShopRepository interface {
	// Create inserts a new shop.
	Create(ctx context.Context, shop *model.Shop) error

	// GetByID retrieves a single shop by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shop, error)

	// Update persists mutable shop fields.
	Update(ctx context.Context, shop *model.Shop) error

	// SetVerified toggles the admin verification flag.
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error

	// SetActive toggles whether the shop accepts orders.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// ListByOwner retrieves the shops owned by a user.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Shop, error)

	// FindNearby returns active, verified shops within maxDistanceKm of
	// the point, nearest first, annotated with distance.
	FindNearby(ctx context.Context, lat, lng, maxDistanceKm float64, filter model.NearbyFilter) ([]model.NearbyShop, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// Create inserts a product with its variants.
	Create(ctx context.Context, product *model.Product) error

	// GetByID retrieves a product with its variants and discount.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Update persists mutable product fields and replaces variants.
	Update(ctx context.Context, product *model.Product) error

	// SoftDelete hides a product from the catalogue.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// ListByShop retrieves a shop's catalogue page.
	ListByShop(ctx context.Context, shopID uuid.UUID, category string, availableOnly bool, limit, offset int) ([]model.Product, error)

	// DebitStock atomically decrements stock if at least quantity remains.
	// Returns false when the conditional update matched no row, i.e. the
	// stock changed concurrently or the product vanished.
	DebitStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)

	// CreditStock atomically increments stock, used by cancellation and
	// by compensation after a failed order creation.
	CreditStock(ctx context.Context, id uuid.UUID, quantity int) error

	// SetStock replaces the stock counter and refreshes availability.
	SetStock(ctx context.Context, id uuid.UUID, stock int) error

	// SetAvailability toggles the manager-controlled availability flag.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// GetByUserID retrieves a user's cart with items, or nil if the user
	// has never had one.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// Create inserts an empty cart for a user.
	Create(ctx context.Context, cart *model.Cart) error

	// Save replaces the cart's items and totals in a single transaction.
	Save(ctx context.Context, cart *model.Cart) error
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// Create inserts a new coupon.
	Create(ctx context.Context, coupon *model.Coupon) error

	// GetByCode retrieves a coupon by its uppercase code, or nil.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// IncrementUsage bumps the usage counter after a successful
	// application. Best effort, not part of the order transaction.
	IncrementUsage(ctx context.Context, id uuid.UUID) error

	// List retrieves coupons, optionally only active ones.
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]model.Coupon, error)

	// SetActive toggles a coupon on or off.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts the order row within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the item snapshots within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// AppendStatusHistory appends one history entry within the provided transaction.
	AppendStatusHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, change model.StatusChange) error

	// GetByID retrieves an order with items and status history.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error)

	// ListByShop retrieves a shop's orders, newest first.
	ListByShop(ctx context.Context, shopID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error)

	// ListAll retrieves orders across shops with optional status filter
	// and order-number search.
	ListAll(ctx context.Context, status model.OrderStatus, search string, limit, offset int) ([]model.Order, int, error)

	// ListReadyForPickup retrieves unassigned ready_for_pickup orders,
	// newest first.
	ListReadyForPickup(ctx context.Context, limit int) ([]model.Order, error)

	// ListByPartner retrieves a partner's orders filtered by status set.
	ListByPartner(ctx context.Context, partnerID uuid.UUID, statuses []model.OrderStatus) ([]model.Order, error)

	// GetActiveByPartner retrieves the partner's in-flight delivery
	// (picked_up or out_for_delivery), or nil.
	GetActiveByPartner(ctx context.Context, partnerID uuid.UUID) (*model.Order, error)

	// SetStatus updates the status and appends the history entry in one
	// transaction.
	SetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, change model.StatusChange) error

	// MarkDelivered sets delivered status, stamps actualDeliveryTime,
	// forces paymentStatus to paid and appends history, in one transaction.
	MarkDelivered(ctx context.Context, id uuid.UUID, change model.StatusChange) error

	// Cancel sets cancelled status with cancellation metadata and appends
	// history, in one transaction.
	Cancel(ctx context.Context, id uuid.UUID, reason string, by model.CancelParty, change model.StatusChange) error

	// Assign conditionally attaches a partner to an unassigned
	// ready_for_pickup order. Returns false when the conditional update
	// matched no row: the order was taken, moved on, or never existed.
	Assign(ctx context.Context, id uuid.UUID, partner *model.DeliveryPartner, change model.StatusChange) (bool, error)

	// SetPartnerLocation refreshes the partner location snapshot on an
	// in-flight order.
	SetPartnerLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error
}

// PartnerRepository defines the interface for delivery partner data access operations.
type PartnerRepository interface {
	// Create registers a new delivery partner.
	Create(ctx context.Context, partner *model.DeliveryPartner) error

	// GetByID retrieves a partner by id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.DeliveryPartner, error)

	// GetByUserID retrieves the partner profile for an identity.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DeliveryPartner, error)

	// UpdateProfile persists the partner-editable profile fields.
	UpdateProfile(ctx context.Context, partner *model.DeliveryPartner) error

	// UpdateLocation stores the partner's current position.
	UpdateLocation(ctx context.Context, id uuid.UUID, lat, lng float64, at time.Time) error

	// SetAvailability sets the available and online flags.
	SetAvailability(ctx context.Context, id uuid.UUID, available, online bool) error

	// SetVerified toggles the admin verification flag.
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error

	// MarkAssigned flags the partner busy and counts the assignment.
	MarkAssigned(ctx context.Context, id uuid.UUID) error

	// MarkCompleted flags the partner available again and counts the
	// completed delivery.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// RecordEarning appends one per-delivery earning event.
	RecordEarning(ctx context.Context, partnerID, orderID uuid.UUID, amount decimal.Decimal, at time.Time) error

	// GetEarnings derives the rolling earnings buckets from the event
	// log relative to now.
	GetEarnings(ctx context.Context, partnerID uuid.UUID, now time.Time) (*model.Earnings, error)

	// List retrieves partners for the admin view.
	List(ctx context.Context, filter model.PartnerFilter) ([]model.DeliveryPartner, int, error)
}
