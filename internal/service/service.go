package service

import (
	"context"
	"time"

	"dashmart/internal/model"

	"github.com/google/uuid"
)

// ShopService manages merchant storefronts and geospatial discovery.
type ShopService interface {
	// Create registers a shop owned by the calling manager.
	Create(ctx context.Context, ownerID uuid.UUID, shop *model.Shop) (*model.Shop, error)

	// GetByID retrieves a shop.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shop, error)

	// Update modifies a shop. Only the owner or an admin may update.
	Update(ctx context.Context, actorID uuid.UUID, role model.Role, shop *model.Shop) (*model.Shop, error)

	// SetActive toggles whether the shop accepts orders.
	SetActive(ctx context.Context, actorID uuid.UUID, role model.Role, shopID uuid.UUID, active bool) error

	// SetVerified toggles the admin verification flag.
	SetVerified(ctx context.Context, shopID uuid.UUID, verified bool) error

	// ListByOwner retrieves the calling manager's shops.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Shop, error)

	// FindNearby retrieves active shops around a point ordered by
	// distance, annotated with deliverability.
	FindNearby(ctx context.Context, lat, lng, maxDistanceKm float64, filter model.NearbyFilter) ([]model.NearbyShop, error)
}

// ProductService manages a shop's catalogue.
type ProductService interface {
	// Create adds a product to a shop the actor owns.
	Create(ctx context.Context, actorID uuid.UUID, role model.Role, product *model.Product) (*model.Product, error)

	// GetByID retrieves a product with variants.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Update modifies a product owned by the actor.
	Update(ctx context.Context, actorID uuid.UUID, role model.Role, product *model.Product) (*model.Product, error)

	// Delete soft-deletes a product owned by the actor.
	Delete(ctx context.Context, actorID uuid.UUID, role model.Role, productID uuid.UUID) error

	// ListByShop retrieves a shop's catalogue page.
	ListByShop(ctx context.Context, shopID uuid.UUID, category string, availableOnly bool, limit, offset int) ([]model.Product, error)

	// SetStock replaces the stock counter.
	SetStock(ctx context.Context, actorID uuid.UUID, role model.Role, productID uuid.UUID, stock int) error

	// SetAvailability toggles the availability flag.
	SetAvailability(ctx context.Context, actorID uuid.UUID, role model.Role, productID uuid.UUID, available bool) error
}

// CartService manages the per-user cart aggregate. Every mutation
// re-resolves live prices and recomputes the totals before saving.
type CartService interface {
	// Get retrieves the user's cart, creating an empty one lazily.
	Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// AddItem adds a product line or merges quantity into an existing
	// matching line.
	AddItem(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*model.Cart, error)

	// UpdateItem replaces a line's quantity. Zero removes the line.
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error)

	// RemoveItem deletes a line.
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error)

	// Clear empties the cart and drops any applied coupon.
	Clear(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// ApplyCoupon validates and attaches a coupon code.
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*model.Cart, error)

	// RemoveCoupon detaches the applied coupon.
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
}

// OrderService owns order placement and the lifecycle state machine.
type OrderService interface {
	// Create places an order: re-resolves prices, debits stock
	// atomically per item with compensation on failure, snapshots the
	// delivery address and pricing, and clears ordered items from the
	// cart.
	Create(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order, enforcing that the actor may see it.
	GetByID(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a page of the customer's own orders.
	ListByUser(ctx context.Context, userID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error)

	// ListByShop retrieves a page of a shop's orders for its owner.
	ListByShop(ctx context.Context, actorID uuid.UUID, role model.Role, shopID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error)

	// ListAll retrieves a page of all orders for admins.
	ListAll(ctx context.Context, status model.OrderStatus, search string, limit, offset int) ([]model.Order, int, error)

	// UpdateStatus advances the order through the transition table.
	UpdateStatus(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID, status model.OrderStatus, note string) (*model.Order, error)

	// AssignPartner hands a ready order to a specific verified,
	// available partner on behalf of the shop.
	AssignPartner(ctx context.Context, actorID uuid.UUID, role model.Role, orderID, partnerID uuid.UUID) (*model.Order, error)

	// Cancel cancels an order if its status still allows it, crediting
	// stock back.
	Cancel(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID, reason string) (*model.Order, error)
}

// DeliveryService manages courier profiles, the assignment race, and the
// delivery leg of the order lifecycle.
type DeliveryService interface {
	// Register creates a partner profile for the calling identity.
	Register(ctx context.Context, userID uuid.UUID, partner *model.DeliveryPartner) (*model.DeliveryPartner, error)

	// GetProfile retrieves the partner profile for an identity.
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.DeliveryPartner, error)

	// UpdateProfile modifies the partner-editable fields.
	UpdateProfile(ctx context.Context, userID uuid.UUID, partner *model.DeliveryPartner) (*model.DeliveryPartner, error)

	// SetAvailability toggles whether the partner accepts assignments.
	SetAvailability(ctx context.Context, userID uuid.UUID, available, online bool) error

	// UpdateLocation records the partner's position and mirrors it onto
	// their active order for customer tracking.
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng float64) error

	// AvailableOrders lists unassigned ready orders a verified,
	// available partner can claim.
	AvailableOrders(ctx context.Context, userID uuid.UUID, limit int) ([]model.Order, error)

	// Accept atomically claims an order for the partner. Losing the
	// race returns ErrOrderAlreadyAssigned.
	Accept(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)

	// PickUp marks the assigned order picked up at the shop.
	PickUp(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)

	// StartDelivery marks the picked-up order out for delivery.
	StartDelivery(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)

	// Complete marks the order delivered, settles payment, frees the
	// partner and records the earning event.
	Complete(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)

	// MyOrders lists the partner's orders, optionally filtered.
	MyOrders(ctx context.Context, userID uuid.UUID, statuses []model.OrderStatus) ([]model.Order, error)

	// ActiveOrder retrieves the partner's current in-flight order.
	ActiveOrder(ctx context.Context, userID uuid.UUID) (*model.Order, error)

	// Earnings aggregates the partner's earning events into rolling
	// buckets as of now.
	Earnings(ctx context.Context, userID uuid.UUID, now time.Time) (*model.Earnings, error)

	// ListPartners retrieves a page of partners for admins.
	ListPartners(ctx context.Context, filter model.PartnerFilter) ([]model.DeliveryPartner, int, error)

	// VerifyPartner toggles the admin verification flag.
	VerifyPartner(ctx context.Context, partnerID uuid.UUID, verified bool) error
}

// CouponService manages discount codes.
type CouponService interface {
	// Create registers a coupon. Codes are stored uppercase.
	Create(ctx context.Context, createdBy uuid.UUID, coupon *model.Coupon) (*model.Coupon, error)

	// List retrieves a page of coupons.
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]model.Coupon, error)

	// SetActive toggles a coupon on or off.
	SetActive(ctx context.Context, couponID uuid.UUID, active bool) error
}
