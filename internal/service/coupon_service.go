package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dashmart/internal/model"
	"dashmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo repository.CouponRepository
	logger     zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(couponRepo repository.CouponRepository, logger zerolog.Logger) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		logger:     logger.With().Str("service", "coupon").Logger(),
	}
}

// Create registers a coupon. Codes are stored uppercase.
func (s *couponService) Create(ctx context.Context, createdBy uuid.UUID, coupon *model.Coupon) (*model.Coupon, error) {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if coupon.Code == "" {
		return nil, model.ValidationError("Coupon code is required")
	}
	if coupon.Type != model.DiscountPercentage && coupon.Type != model.DiscountFixed {
		return nil, model.ValidationError("Coupon type must be percentage or fixed")
	}
	if !coupon.Value.IsPositive() {
		return nil, model.ValidationError("Coupon value must be positive")
	}
	if !coupon.ValidUntil.After(coupon.ValidFrom) {
		return nil, model.ValidationError("Coupon validity window is inverted")
	}
	if !coupon.IsGlobal && len(coupon.ApplicableShops) == 0 {
		return nil, model.ValidationError("A non-global coupon needs applicable shops")
	}

	existing, err := s.couponRepo.GetByCode(ctx, coupon.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	if existing != nil {
		return nil, model.ConflictError("A coupon with this code already exists")
	}

	coupon.ID = uuid.New()
	coupon.UsedCount = 0
	coupon.IsActive = true
	coupon.CreatedBy = createdBy
	coupon.CreatedAt = time.Now()

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		s.logger.Error().Err(err).Str("code", coupon.Code).Msg("failed to create coupon")
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.logger.Info().Str("code", coupon.Code).Msg("coupon created")
	return coupon, nil
}

// List retrieves a page of coupons.
func (s *couponService) List(ctx context.Context, activeOnly bool, limit, offset int) ([]model.Coupon, error) {
	limit, offset = clampPage(limit, offset)
	return s.couponRepo.List(ctx, activeOnly, limit, offset)
}

// SetActive toggles a coupon on or off.
func (s *couponService) SetActive(ctx context.Context, couponID uuid.UUID, active bool) error {
	return s.couponRepo.SetActive(ctx, couponID, active)
}
