package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"dashmart/internal/events"
	"dashmart/internal/model"
	"dashmart/internal/notify"
	"dashmart/internal/pricing"
	"dashmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	shopRepo    repository.ShopRepository
	cartRepo    repository.CartRepository
	couponRepo  repository.CouponRepository
	userRepo    repository.UserRepository
	partnerRepo repository.PartnerRepository
	notifier    notify.Notifier
	publisher   events.Publisher
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	shopRepo repository.ShopRepository,
	cartRepo repository.CartRepository,
	couponRepo repository.CouponRepository,
	userRepo repository.UserRepository,
	partnerRepo repository.PartnerRepository,
	notifier notify.Notifier,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		shopRepo:    shopRepo,
		cartRepo:    cartRepo,
		couponRepo:  couponRepo,
		userRepo:    userRepo,
		partnerRepo: partnerRepo,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// debit is one successfully debited stock line, remembered so a later
// failure can credit it back.
type debit struct {
	productID uuid.UUID
	quantity  int
}

// Create places an order. Stock is debited per item with a conditional
// update; any later failure credits the completed debits back before
// returning, so a failed placement never leaks reserved stock.
func (s *orderService) Create(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	shop, err := s.shopRepo.GetByID(ctx, req.ShopID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return nil, model.ErrShopNotFound
	}
	if !shop.IsActive {
		return nil, model.ErrShopInactive
	}

	address, err := s.userRepo.GetAddress(ctx, userID, req.DeliveryAddressID)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil {
		return nil, model.ErrAddressNotFound
	}

	now := time.Now()
	orderID := uuid.New()

	// Resolve every line against the live catalogue before touching
	// stock. Prices in the request, if any, are ignored.
	subtotal := decimal.Zero
	items := make([]model.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to get product: %w", err)
		}
		if product == nil {
			return nil, model.ErrProductNotFound
		}
		if product.ShopID != req.ShopID {
			return nil, model.ValidationError("All items must belong to the requested shop")
		}

		unitPrice, variant, err := pricing.ResolveUnitPrice(product, line.VariantID, line.Quantity)
		if err != nil {
			return nil, err
		}
		discount := pricing.ResolveItemDiscount(product, unitPrice, now)
		finalPrice := pricing.FinalPrice(unitPrice, discount)

		item := model.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			ProductID:  product.ID,
			Name:       product.Name,
			Image:      product.PrimaryImage(),
			Price:      unitPrice,
			Quantity:   line.Quantity,
			VariantID:  line.VariantID,
			Unit:       product.Unit,
			UnitValue:  product.UnitValue,
			Discount:   discount,
			FinalPrice: finalPrice,
			Subtotal:   finalPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
		if variant != nil {
			item.VariantName = variant.Name
			item.VariantValue = variant.Value
		}

		items = append(items, item)
		subtotal = subtotal.Add(item.Subtotal)
	}

	if subtotal.LessThan(shop.MinimumOrderAmount) {
		return nil, model.NewDomainError(model.ErrCodeBelowMinimum, 400,
			fmt.Sprintf("Minimum order amount of %s required", shop.MinimumOrderAmount.StringFixed(2)))
	}

	// An ineligible coupon degrades to no discount rather than failing
	// the order at this point.
	var applied *model.AppliedCoupon
	var coupon *model.Coupon
	couponDiscount := decimal.Zero
	if req.CouponCode != nil && *req.CouponCode != "" {
		coupon, err = s.couponRepo.GetByCode(ctx, *req.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("failed to get coupon: %w", err)
		}
		if d, ok := pricing.ResolveCouponDiscount(coupon, subtotal, req.ShopID, now); ok {
			couponDiscount = d
			applied = &model.AppliedCoupon{Code: coupon.Code, Discount: d}
		} else {
			s.logger.Debug().Str("code", *req.CouponCode).Msg("coupon not applied")
			coupon = nil
		}
	}

	// Debit stock line by line. The conditional update loses to a
	// concurrent order rather than overselling.
	var debits []debit
	for _, item := range items {
		ok, err := s.productRepo.DebitStock(ctx, item.ProductID, item.Quantity)
		if err == nil && !ok {
			err = model.ErrInsufficientStock
		}
		if err != nil {
			s.compensate(ctx, debits)
			s.logger.Warn().
				Err(err).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("stock debit failed, order rejected")
			return nil, err
		}
		debits = append(debits, debit{productID: item.ProductID, quantity: item.Quantity})
	}

	estimated := now.Add(time.Duration(shop.EstimatedMinutes) * time.Minute)
	order := &model.Order{
		ID:                  orderID,
		OrderNumber:         newOrderNumber(now),
		UserID:              userID,
		ShopID:              req.ShopID,
		Items:               items,
		DeliveryAddress:     *address,
		ContactNumber:       req.ContactNumber,
		Pricing:             pricing.ComputeTotals(subtotal, shop.DeliveryFee, couponDiscount),
		CouponApplied:       applied,
		PaymentMethod:       req.PaymentMethod,
		PaymentStatus:       model.PaymentPending,
		OrderStatus:         model.StatusPending,
		SpecialInstructions: req.SpecialInstructions,
		EstimatedDelivery:   &estimated,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.compensate(ctx, debits)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
			s.compensate(ctx, debits)
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	change := model.StatusChange{Status: model.StatusPending, Timestamp: now, Note: "Order placed"}
	if err = s.orderRepo.AppendStatusHistory(ctx, tx, orderID, change); err != nil {
		return nil, fmt.Errorf("failed to record order status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	order.StatusHistory = []model.StatusChange{change}

	if coupon != nil {
		if cErr := s.couponRepo.IncrementUsage(ctx, coupon.ID); cErr != nil {
			s.logger.Error().Err(cErr).Str("coupon_id", coupon.ID.String()).Msg("failed to count coupon usage")
		}
	}

	s.clearOrderedItems(ctx, userID, req.ShopID)

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("order_number", order.OrderNumber).
		Str("shop_id", req.ShopID.String()).
		Str("total", order.Pricing.Total.StringFixed(2)).
		Msg("order created")

	s.notifier.UserUpdate(ctx, userID, "order_placed", order)
	s.publisher.Publish(ctx, events.OrderEvent{
		Type:        events.OrderCreated,
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		UserID:      userID,
		ShopID:      req.ShopID,
		Status:      model.StatusPending,
		Total:       order.Pricing.Total.StringFixed(2),
		OccurredAt:  now,
	})

	return order, nil
}

// compensate credits back every completed debit after a failure.
func (s *orderService) compensate(ctx context.Context, debits []debit) {
	for _, d := range debits {
		if err := s.productRepo.CreditStock(ctx, d.productID, d.quantity); err != nil {
			s.logger.Error().Err(err).
				Str("product_id", d.productID.String()).
				Int("quantity", d.quantity).
				Msg("stock compensation failed")
		}
	}
}

// clearOrderedItems removes the ordered shop's lines from the cart,
// leaving other shops' lines in place. Best effort.
func (s *orderService) clearOrderedItems(ctx context.Context, userID, shopID uuid.UUID) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil || cart == nil {
		return
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ShopID != shopID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(cart.Items) {
		return
	}
	cart.Items = kept
	cart.AppliedCoupon = nil

	subtotal := cartSubtotal(cart)
	totalItems := 0
	for i := range cart.Items {
		totalItems += cart.Items[i].Quantity
	}
	cart.TotalItems = totalItems
	cart.Subtotal = subtotal
	cart.Discount = decimal.Zero
	cart.Tax = pricing.CartTax(subtotal)
	cart.Total = subtotal.Add(cart.Tax).Add(cart.DeliveryFee)
	cart.UpdatedAt = time.Now()

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear ordered items from cart")
	}
}

// GetByID retrieves an order, enforcing that the actor may see it.
func (s *orderService) GetByID(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if err := s.requireOrderAccess(ctx, order, actorID, role); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser retrieves a page of the customer's own orders.
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, model.ValidationError("Unknown order status")
	}
	limit, offset = clampPage(limit, offset)
	return s.orderRepo.ListByUser(ctx, userID, status, limit, offset)
}

// ListByShop retrieves a page of a shop's orders for its owner.
func (s *orderService) ListByShop(ctx context.Context, actorID uuid.UUID, role model.Role, shopID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, model.ValidationError("Unknown order status")
	}

	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return nil, 0, model.ErrShopNotFound
	}
	if err := requireShopAccess(shop, actorID, role); err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)
	return s.orderRepo.ListByShop(ctx, shopID, status, limit, offset)
}

// ListAll retrieves a page of all orders for admins.
func (s *orderService) ListAll(ctx context.Context, status model.OrderStatus, search string, limit, offset int) ([]model.Order, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, model.ValidationError("Unknown order status")
	}
	limit, offset = clampPage(limit, offset)
	return s.orderRepo.ListAll(ctx, status, search, limit, offset)
}

// UpdateStatus advances the order through the transition table. Shop
// owners drive the preparation leg; the delivery leg is driven through
// DeliveryService.
func (s *orderService) UpdateStatus(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID, status model.OrderStatus, note string) (*model.Order, error) {
	if !status.Valid() {
		return nil, model.ValidationError("Unknown order status")
	}

	order, err := s.GetByID(ctx, actorID, role, orderID)
	if err != nil {
		return nil, err
	}

	if status == model.StatusCancelled {
		return nil, model.ValidationError("Use the cancel operation to cancel an order")
	}
	if !order.OrderStatus.CanTransitionTo(status) {
		return nil, model.InvalidStateError(
			fmt.Sprintf("Cannot move order from %s to %s", order.OrderStatus, status))
	}

	now := time.Now()
	change := model.StatusChange{Status: status, Timestamp: now, Note: note}

	// Delivered settles the order: the payment flips to paid, the
	// actual delivery time is stamped, and the assigned partner is
	// freed and credited, the same as a partner completing it.
	if status == model.StatusDelivered {
		if err := s.orderRepo.MarkDelivered(ctx, orderID, change); err != nil {
			return nil, err
		}
		s.settlePartner(ctx, order, now)
	} else {
		if err := s.orderRepo.SetStatus(ctx, orderID, status, change); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(order.OrderStatus)).
		Str("to", string(status)).
		Msg("order status updated")

	s.notifier.OrderUpdate(ctx, orderID, "status_changed", change)
	s.publisher.Publish(ctx, events.OrderEvent{
		Type:        events.OrderStatusChanged,
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		ShopID:      order.ShopID,
		Status:      status,
		OccurredAt:  now,
	})

	return s.orderRepo.GetByID(ctx, orderID)
}

// settlePartner frees the order's assigned partner and records the
// delivery-fee earning event after a delivery.
func (s *orderService) settlePartner(ctx context.Context, order *model.Order, at time.Time) {
	if order.DeliveryPartnerID == nil {
		return
	}
	partnerID := *order.DeliveryPartnerID

	if err := s.partnerRepo.MarkCompleted(ctx, partnerID); err != nil {
		s.logger.Error().Err(err).Str("partner_id", partnerID.String()).Msg("failed to mark partner completed")
	}
	if err := s.partnerRepo.RecordEarning(ctx, partnerID, order.ID, order.Pricing.DeliveryFee, at); err != nil {
		s.logger.Error().Err(err).
			Str("partner_id", partnerID.String()).
			Str("order_id", order.ID.String()).
			Msg("failed to record earning")
	}
}

// AssignPartner hands a ready order to a specific verified partner on
// behalf of the shop, instead of waiting for the partner to claim it.
// The same conditional update that settles the claim race applies, so
// a partner accepting concurrently cannot be overwritten.
func (s *orderService) AssignPartner(ctx context.Context, actorID uuid.UUID, role model.Role, orderID, partnerID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	shop, err := s.shopRepo.GetByID(ctx, order.ShopID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return nil, model.ErrShopNotFound
	}
	if err := requireShopAccess(shop, actorID, role); err != nil {
		return nil, err
	}

	if order.OrderStatus != model.StatusReadyForPickup {
		return nil, model.ErrOrderNotReady
	}

	partner, err := s.partnerRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if partner == nil {
		return nil, model.ErrPartnerNotFound
	}
	if !partner.IsVerified {
		return nil, model.ErrPartnerNotVerified
	}
	if !partner.IsAvailable {
		return nil, model.InvalidStateError("Partner is not available for deliveries")
	}

	now := time.Now()
	change := model.StatusChange{
		Status:    model.StatusAssigned,
		Timestamp: now,
		Note:      fmt.Sprintf("Assigned to %s by shop", partner.Name),
	}

	claimed, err := s.orderRepo.Assign(ctx, orderID, partner, change)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, model.ErrOrderAlreadyAssigned
	}

	if err := s.partnerRepo.MarkAssigned(ctx, partner.ID); err != nil {
		s.logger.Error().Err(err).Str("partner_id", partner.ID.String()).Msg("failed to mark partner assigned")
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("partner_id", partner.ID.String()).
		Msg("order assigned by shop")

	s.notifier.OrderUpdate(ctx, orderID, "partner_assigned", change)
	s.notifier.PartnerUpdate(ctx, partner.ID, "order_assigned", map[string]string{
		"orderId":     orderID.String(),
		"orderNumber": order.OrderNumber,
	})
	s.publisher.Publish(ctx, events.OrderEvent{
		Type:        events.OrderAssigned,
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		ShopID:      order.ShopID,
		Status:      model.StatusAssigned,
		OccurredAt:  now,
	})

	return s.orderRepo.GetByID(ctx, orderID)
}

// Cancel cancels an order if its status still allows it, crediting
// stock back for every item.
func (s *orderService) Cancel(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID, reason string) (*model.Order, error) {
	order, err := s.GetByID(ctx, actorID, role, orderID)
	if err != nil {
		return nil, err
	}

	if !order.OrderStatus.IsCancellable() {
		return nil, model.ErrCancellationClosed
	}

	by := model.CancelledByCustomer
	switch role {
	case model.RoleAdmin:
		by = model.CancelledByAdmin
	case model.RoleManager:
		by = model.CancelledByShop
	}

	now := time.Now()
	change := model.StatusChange{
		Status:    model.StatusCancelled,
		Timestamp: now,
		Note:      fmt.Sprintf("Cancelled by %s: %s", by, reason),
	}
	if err := s.orderRepo.Cancel(ctx, orderID, reason, by, change); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		if err := s.productRepo.CreditStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error().Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", item.ProductID.String()).
				Msg("failed to restore stock on cancellation")
		}
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("cancelled_by", string(by)).
		Msg("order cancelled")

	s.notifier.OrderUpdate(ctx, orderID, "cancelled", change)
	s.publisher.Publish(ctx, events.OrderEvent{
		Type:        events.OrderCancelled,
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		ShopID:      order.ShopID,
		Status:      model.StatusCancelled,
		OccurredAt:  now,
	})

	return s.orderRepo.GetByID(ctx, orderID)
}

func (s *orderService) requireOrderAccess(ctx context.Context, order *model.Order, actorID uuid.UUID, role model.Role) error {
	switch role {
	case model.RoleAdmin:
		return nil
	case model.RoleCustomer:
		if order.UserID != actorID {
			return model.ErrOrderNotFound
		}
		return nil
	case model.RoleManager:
		shop, err := s.shopRepo.GetByID(ctx, order.ShopID)
		if err != nil {
			return fmt.Errorf("failed to get shop: %w", err)
		}
		if shop == nil || shop.OwnerID != actorID {
			return model.ErrOrderNotFound
		}
		return nil
	case model.RolePartner:
		if order.DeliveryPartnerID == nil {
			return model.ErrOrderNotFound
		}
		partner, err := s.partnerRepo.GetByUserID(ctx, actorID)
		if err != nil {
			return fmt.Errorf("failed to get partner: %w", err)
		}
		if partner == nil || *order.DeliveryPartnerID != partner.ID {
			return model.ErrNotAssignedPartner
		}
		return nil
	}
	return model.ForbiddenError("Unknown role")
}

func validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.ValidationError("Order request is required")
	}
	if req.ShopID == uuid.Nil {
		return model.ValidationError("Shop is required")
	}
	if len(req.Items) == 0 {
		return model.ValidationError("Order must contain at least one item")
	}
	if req.DeliveryAddressID == uuid.Nil {
		return model.ValidationError("Delivery address is required")
	}
	if !req.PaymentMethod.Valid() {
		return model.ValidationError("Unknown payment method")
	}
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return model.ValidationError(fmt.Sprintf("Item %d: product is required", i))
		}
		if item.Quantity <= 0 || item.Quantity > maxItemQuantity {
			return model.ValidationError(fmt.Sprintf("Item %d: quantity must be between 1 and 50", i))
		}
	}
	return nil
}

const orderNumberChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newOrderNumber builds a human-readable order number. A unique index
// on the column backstops the unlikely collision.
func newOrderNumber(now time.Time) string {
	var suffix strings.Builder
	for i := 0; i < 6; i++ {
		suffix.WriteByte(orderNumberChars[rand.Intn(len(orderNumberChars))])
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix.String())
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
