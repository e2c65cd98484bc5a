package service

import (
	"context"
	"testing"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestShopService_Create(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockShopRepository)
	service := NewShopService(mockRepo, zerolog.Nop())

	ownerID := uuid.New()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*model.Shop")).Return(nil)

	shop, err := service.Create(ctx, ownerID, &model.Shop{
		Name:      "Fresh Mart",
		Latitude:  12.9716,
		Longitude: 77.5946,
	})

	require.NoError(t, err)
	assert.Equal(t, ownerID, shop.OwnerID)
	assert.True(t, shop.IsActive)
	assert.False(t, shop.IsVerified, "new shops start unverified")
	assert.Equal(t, 5.0, shop.DeliveryRadiusKm, "default radius")
	assert.Equal(t, 30, shop.EstimatedMinutes, "default estimate")
}

func TestShopService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	service := NewShopService(new(MockShopRepository), zerolog.Nop())

	tests := []struct {
		name string
		shop *model.Shop
	}{
		{name: "missing name", shop: &model.Shop{Latitude: 12.9, Longitude: 77.6}},
		{name: "bad latitude", shop: &model.Shop{Name: "X", Latitude: 95, Longitude: 77.6}},
		{name: "bad longitude", shop: &model.Shop{Name: "X", Latitude: 12.9, Longitude: 191}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, uuid.New(), tt.shop)

			require.Error(t, err)
			var domainErr *model.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, model.ErrCodeValidationFailed, domainErr.Code)
		})
	}
}

func TestShopService_Update_OwnershipGuard(t *testing.T) {
	ctx := context.Background()

	ownerID := uuid.New()
	shopID := uuid.New()

	current := func() *model.Shop {
		s := testShop(shopID)
		s.OwnerID = ownerID
		return s
	}

	t.Run("stranger forbidden", func(t *testing.T) {
		mockRepo := new(MockShopRepository)
		service := NewShopService(mockRepo, zerolog.Nop())

		mockRepo.On("GetByID", ctx, shopID).Return(current(), nil)

		update := current()
		update.Name = "Hijacked"
		_, err := service.Update(ctx, uuid.New(), model.RoleManager, update)

		require.Error(t, err)
		var domainErr *model.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, model.ErrCodeForbidden, domainErr.Code)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("owner cannot self-verify", func(t *testing.T) {
		mockRepo := new(MockShopRepository)
		service := NewShopService(mockRepo, zerolog.Nop())

		mockRepo.On("GetByID", ctx, shopID).Return(current(), nil)
		mockRepo.On("Update", ctx, mock.MatchedBy(func(s *model.Shop) bool {
			return !s.IsVerified
		})).Return(nil)

		update := current()
		update.IsVerified = true
		_, err := service.Update(ctx, ownerID, model.RoleManager, update)

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestShopService_FindNearby(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockShopRepository)
	service := NewShopService(mockRepo, zerolog.Nop())

	near := model.NearbyShop{Shop: *testShop(uuid.New()), DistanceKm: 1.23456}
	near.DeliveryRadiusKm = 5
	far := model.NearbyShop{Shop: *testShop(uuid.New()), DistanceKm: 7.89123}
	far.DeliveryRadiusKm = 5

	mockRepo.On("FindNearby", ctx, 12.9716, 77.5946, 10.0, model.NearbyFilter{}).
		Return([]model.NearbyShop{near, far}, nil)

	shops, err := service.FindNearby(ctx, 12.9716, 77.5946, 0, model.NearbyFilter{})

	require.NoError(t, err)
	require.Len(t, shops, 2)

	assert.Equal(t, 1.23, shops[0].DistanceKm, "distance rounded to 2dp")
	assert.True(t, shops[0].IsInDeliveryRange)
	assert.Equal(t, 7.89, shops[1].DistanceKm)
	assert.False(t, shops[1].IsInDeliveryRange, "beyond the shop's own radius")
}

func TestShopService_FindNearby_InvalidCoordinates(t *testing.T) {
	ctx := context.Background()
	service := NewShopService(new(MockShopRepository), zerolog.Nop())

	_, err := service.FindNearby(ctx, 91, 77.5946, 10, model.NearbyFilter{})

	require.Error(t, err)
	var domainErr *model.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodeValidationFailed, domainErr.Code)
}
