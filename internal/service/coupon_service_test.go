package service

import (
	"context"
	"testing"
	"time"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCouponService() (*MockCouponRepository, CouponService) {
	repo := new(MockCouponRepository)
	return repo, NewCouponService(repo, zerolog.Nop())
}

func validCoupon() *model.Coupon {
	maxDiscount := dec("50")
	return &model.Coupon{
		Code:        "save20",
		Description: "20% off",
		Type:        model.DiscountPercentage,
		Value:       dec("20"),
		MaxDiscount: &maxDiscount,
		IsGlobal:    true,
		ValidFrom:   time.Now().Add(-time.Hour),
		ValidUntil:  time.Now().Add(24 * time.Hour),
	}
}

func TestCouponService_Create(t *testing.T) {
	ctx := context.Background()
	adminID := uuid.New()

	t.Run("Uppercases the code and sets defaults", func(t *testing.T) {
		repo, svc := newCouponService()
		repo.On("GetByCode", ctx, "SAVE20").Return(nil, nil)
		repo.On("Create", ctx, mock.MatchedBy(func(c *model.Coupon) bool {
			return c.Code == "SAVE20" && c.IsActive && c.UsedCount == 0 && c.CreatedBy == adminID
		})).Return(nil)

		created, err := svc.Create(ctx, adminID, validCoupon())
		require.NoError(t, err)
		assert.Equal(t, "SAVE20", created.Code)
		repo.AssertExpectations(t)
	})

	t.Run("Duplicate code conflicts", func(t *testing.T) {
		repo, svc := newCouponService()
		repo.On("GetByCode", ctx, "SAVE20").Return(validCoupon(), nil)

		_, err := svc.Create(ctx, adminID, validCoupon())
		require.Error(t, err)

		var domainErr *model.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, model.ErrCodeConflict, domainErr.Code)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("Validation table", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*model.Coupon)
		}{
			{"empty code", func(c *model.Coupon) { c.Code = "  " }},
			{"unknown type", func(c *model.Coupon) { c.Type = "bogo" }},
			{"zero value", func(c *model.Coupon) { c.Value = dec("0") }},
			{"inverted window", func(c *model.Coupon) { c.ValidFrom, c.ValidUntil = c.ValidUntil, c.ValidFrom }},
			{"non-global without shops", func(c *model.Coupon) { c.IsGlobal = false }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo, svc := newCouponService()
				coupon := validCoupon()
				tt.mutate(coupon)

				_, err := svc.Create(ctx, adminID, coupon)
				require.Error(t, err)

				var domainErr *model.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, model.ErrCodeValidationFailed, domainErr.Code)
				repo.AssertNotCalled(t, "Create")
			})
		}
	})
}

func TestCouponService_List_ClampsPaging(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCouponService()

	repo.On("List", ctx, true, 20, 0).Return([]model.Coupon{}, nil)

	_, err := svc.List(ctx, true, -5, -10)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCouponService_SetActive(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCouponService()
	couponID := uuid.New()

	repo.On("SetActive", ctx, couponID, false).Return(nil)

	require.NoError(t, svc.SetActive(ctx, couponID, false))
	repo.AssertExpectations(t)
}
