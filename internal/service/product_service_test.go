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

type productServiceFixture struct {
	productRepo *MockProductRepository
	shopRepo    *MockShopRepository
	service     ProductService
}

func newProductServiceFixture() *productServiceFixture {
	f := &productServiceFixture{
		productRepo: new(MockProductRepository),
		shopRepo:    new(MockShopRepository),
	}
	f.service = NewProductService(f.productRepo, f.shopRepo, zerolog.Nop())
	return f
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	shopID := uuid.New()

	ownedShop := func() *model.Shop {
		shop := testShop(shopID)
		shop.OwnerID = ownerID
		return shop
	}

	t.Run("Availability follows stock", func(t *testing.T) {
		f := newProductServiceFixture()
		f.shopRepo.On("GetByID", ctx, shopID).Return(ownedShop(), nil)
		f.productRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)

		created, err := f.service.Create(ctx, ownerID, model.RoleManager, &model.Product{
			ShopID: shopID,
			Name:   "Bread",
			Price:  dec("45"),
			Stock:  0,
		})
		require.NoError(t, err)
		assert.False(t, created.IsAvailable, "zero stock must start unavailable")
		assert.NotEqual(t, uuid.Nil, created.ID)
	})

	t.Run("Variants get identities", func(t *testing.T) {
		f := newProductServiceFixture()
		f.shopRepo.On("GetByID", ctx, shopID).Return(ownedShop(), nil)
		f.productRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)

		created, err := f.service.Create(ctx, ownerID, model.RoleManager, &model.Product{
			ShopID: shopID,
			Name:   "Milk",
			Price:  dec("60"),
			Stock:  10,
			Variants: []model.Variant{
				{Name: "Size", Value: "500ml", Price: dec("35"), Stock: 5},
			},
		})
		require.NoError(t, err)
		require.Len(t, created.Variants, 1)
		assert.NotEqual(t, uuid.Nil, created.Variants[0].ID)
		assert.Equal(t, created.ID, created.Variants[0].ProductID)
	})

	t.Run("Stranger manager is rejected", func(t *testing.T) {
		f := newProductServiceFixture()
		f.shopRepo.On("GetByID", ctx, shopID).Return(testShop(shopID), nil)

		_, err := f.service.Create(ctx, ownerID, model.RoleManager, &model.Product{
			ShopID: shopID,
			Name:   "Bread",
			Price:  dec("45"),
		})
		require.Error(t, err)

		var domainErr *model.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, model.ErrCodeForbidden, domainErr.Code)
		f.productRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Admin bypasses ownership", func(t *testing.T) {
		f := newProductServiceFixture()
		f.shopRepo.On("GetByID", ctx, shopID).Return(testShop(shopID), nil)
		f.productRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)

		_, err := f.service.Create(ctx, uuid.New(), model.RoleAdmin, &model.Product{
			ShopID: shopID,
			Name:   "Bread",
			Price:  dec("45"),
		})
		require.NoError(t, err)
	})

	t.Run("Validation", func(t *testing.T) {
		f := newProductServiceFixture()
		f.shopRepo.On("GetByID", ctx, shopID).Return(ownedShop(), nil)

		_, err := f.service.Create(ctx, ownerID, model.RoleManager, &model.Product{
			ShopID: shopID,
			Price:  dec("45"),
		})
		require.Error(t, err)

		_, err = f.service.Create(ctx, ownerID, model.RoleManager, &model.Product{
			ShopID: shopID,
			Name:   "Bread",
			Price:  dec("-1"),
		})
		require.Error(t, err)
	})
}

func TestProductService_Update_PinsShop(t *testing.T) {
	ctx := context.Background()
	f := newProductServiceFixture()

	ownerID := uuid.New()
	shop := testShop(uuid.New())
	shop.OwnerID = ownerID
	existing := testProduct(shop.ID, "100", 5)

	f.productRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	f.shopRepo.On("GetByID", ctx, shop.ID).Return(shop, nil)
	f.productRepo.On("Update", ctx, mock.MatchedBy(func(p *model.Product) bool {
		return p.ShopID == shop.ID
	})).Return(nil)

	update := &model.Product{
		ID:     existing.ID,
		ShopID: uuid.New(), // attempt to move the product to another shop
		Name:   "Milk 1L",
		Price:  dec("110"),
		Stock:  5,
	}
	_, err := f.service.Update(ctx, ownerID, model.RoleManager, update)
	require.NoError(t, err)
	f.productRepo.AssertExpectations(t)
}

func TestProductService_SetStock(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("Rejects negative stock before any lookup", func(t *testing.T) {
		f := newProductServiceFixture()

		err := f.service.SetStock(ctx, ownerID, model.RoleManager, uuid.New(), -1)
		require.Error(t, err)
		f.productRepo.AssertNotCalled(t, "GetByID")
	})

	t.Run("Owner sets stock", func(t *testing.T) {
		f := newProductServiceFixture()
		shop := testShop(uuid.New())
		shop.OwnerID = ownerID
		product := testProduct(shop.ID, "100", 5)

		f.productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
		f.shopRepo.On("GetByID", ctx, shop.ID).Return(shop, nil)
		f.productRepo.On("SetStock", ctx, product.ID, 12).Return(nil)

		require.NoError(t, f.service.SetStock(ctx, ownerID, model.RoleManager, product.ID, 12))
		f.productRepo.AssertExpectations(t)
	})
}

func TestProductService_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newProductServiceFixture()

	productID := uuid.New()
	f.productRepo.On("GetByID", ctx, productID).Return(nil, nil)

	err := f.service.Delete(ctx, uuid.New(), model.RoleAdmin, productID)
	require.ErrorIs(t, err, model.ErrProductNotFound)
	f.productRepo.AssertNotCalled(t, "SoftDelete")
}
