package service

import (
	"context"
	"fmt"
	"time"

	"dashmart/internal/model"
	"dashmart/internal/pricing"
	"dashmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxItemQuantity = 50

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	shopRepo    repository.ShopRepository
	couponRepo  repository.CouponRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	shopRepo repository.ShopRepository,
	couponRepo repository.CouponRepository,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		shopRepo:    shopRepo,
		couponRepo:  couponRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// Get retrieves the user's cart, creating an empty one lazily.
func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart != nil {
		return cart, nil
	}

	now := time.Now()
	cart = &model.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	s.logger.Debug().Str("user_id", userID.String()).Msg("cart created")
	return cart, nil
}

// AddItem adds a product line or merges quantity into an existing
// matching line. The line's price fields are a fresh resolution of the
// live product.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity <= 0 || quantity > maxItemQuantity {
		return nil, model.ValidationError("Quantity must be between 1 and 50")
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	shop, err := s.shopRepo.GetByID(ctx, product.ShopID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return nil, model.ErrShopNotFound
	}
	if !shop.IsActive {
		return nil, model.ErrShopInactive
	}

	total := quantity
	for i := range cart.Items {
		if cart.Items[i].Matches(productID, variantID) {
			total += cart.Items[i].Quantity
		}
	}

	now := time.Now()
	unitPrice, variant, err := pricing.ResolveUnitPrice(product, variantID, total)
	if err != nil {
		return nil, err
	}
	discount := pricing.ResolveItemDiscount(product, unitPrice, now)
	finalPrice := pricing.FinalPrice(unitPrice, discount)

	merged := false
	for i := range cart.Items {
		if cart.Items[i].Matches(productID, variantID) {
			cart.Items[i].Quantity = total
			cart.Items[i].Price = unitPrice
			cart.Items[i].Discount = discount
			cart.Items[i].FinalPrice = finalPrice
			merged = true
			break
		}
	}

	if !merged {
		item := model.CartItem{
			ID:         uuid.New(),
			CartID:     cart.ID,
			ProductID:  productID,
			ShopID:     product.ShopID,
			Name:       product.Name,
			Image:      product.PrimaryImage(),
			Price:      unitPrice,
			Quantity:   quantity,
			VariantID:  variantID,
			Unit:       product.Unit,
			UnitValue:  product.UnitValue,
			Discount:   discount,
			FinalPrice: finalPrice,
			AddedAt:    now,
		}
		if variant != nil {
			item.VariantName = variant.Name
			item.VariantValue = variant.Value
		}
		cart.Items = append(cart.Items, item)
	}

	return s.recomputeAndSave(ctx, cart, now)
}

// UpdateItem replaces a line's quantity, re-resolving the price. Zero
// removes the line.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity < 0 || quantity > maxItemQuantity {
		return nil, model.ValidationError("Quantity must be between 0 and 50")
	}

	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, model.ErrCartItemNotFound
	}

	now := time.Now()
	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return s.recomputeAndSave(ctx, cart, now)
	}

	item := &cart.Items[idx]
	product, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	unitPrice, _, err := pricing.ResolveUnitPrice(product, item.VariantID, quantity)
	if err != nil {
		return nil, err
	}
	discount := pricing.ResolveItemDiscount(product, unitPrice, now)

	item.Quantity = quantity
	item.Price = unitPrice
	item.Discount = discount
	item.FinalPrice = pricing.FinalPrice(unitPrice, discount)

	return s.recomputeAndSave(ctx, cart, now)
}

// RemoveItem deletes a line.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, model.ErrCartItemNotFound
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.recomputeAndSave(ctx, cart, time.Now())
}

// Clear empties the cart and drops any applied coupon.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Items = nil
	cart.AppliedCoupon = nil
	return s.recomputeAndSave(ctx, cart, time.Now())
}

// ApplyCoupon validates and attaches a coupon code. Unlike order
// creation, an ineligible coupon here fails loudly so the customer
// knows it did not apply.
func (s *cartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*model.Cart, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	if coupon == nil || !coupon.IsActive {
		return nil, model.ErrCouponNotFound
	}

	now := time.Now()
	if !coupon.ValidAt(now) {
		return nil, model.ErrCouponExpired
	}

	subtotal := cartSubtotal(cart)
	if subtotal.LessThan(coupon.MinOrderAmount) {
		return nil, model.NewDomainError(model.ErrCodeBelowMinimum, 400,
			fmt.Sprintf("Minimum order amount of %s required", coupon.MinOrderAmount.StringFixed(2)))
	}

	cart.AppliedCoupon = &model.AppliedCoupon{
		Code:     coupon.Code,
		Discount: pricing.CouponDiscount(coupon, subtotal),
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("code", coupon.Code).
		Msg("coupon applied to cart")

	return s.recomputeAndSave(ctx, cart, now)
}

// RemoveCoupon detaches the applied coupon.
func (s *cartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.AppliedCoupon = nil
	return s.recomputeAndSave(ctx, cart, time.Now())
}

func (s *cartService) requireCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}
	return cart, nil
}

// recomputeAndSave recomputes totals from items + coupon and persists.
// A coupon whose minimum the shrunken subtotal no longer meets is
// dropped rather than left stale.
func (s *cartService) recomputeAndSave(ctx context.Context, cart *model.Cart, now time.Time) (*model.Cart, error) {
	subtotal := cartSubtotal(cart)

	totalItems := 0
	for i := range cart.Items {
		totalItems += cart.Items[i].Quantity
	}

	discount := decimal.Zero
	if cart.AppliedCoupon != nil {
		coupon, err := s.couponRepo.GetByCode(ctx, cart.AppliedCoupon.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to get coupon: %w", err)
		}
		if coupon == nil || !coupon.IsActive || !coupon.ValidAt(now) || subtotal.LessThan(coupon.MinOrderAmount) {
			cart.AppliedCoupon = nil
		} else {
			discount = pricing.CouponDiscount(coupon, subtotal)
			cart.AppliedCoupon.Discount = discount
		}
	}

	tax := pricing.CartTax(subtotal)
	total := subtotal.Add(tax).Add(cart.DeliveryFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	cart.TotalItems = totalItems
	cart.Subtotal = subtotal
	cart.Discount = discount
	cart.Tax = tax
	cart.Total = total
	cart.UpdatedAt = now

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to save cart")
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return cart, nil
}

func cartSubtotal(cart *model.Cart) decimal.Decimal {
	subtotal := decimal.Zero
	for i := range cart.Items {
		subtotal = subtotal.Add(cart.Items[i].LineTotal())
	}
	return subtotal
}
