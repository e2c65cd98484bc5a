package integration

import (
	"context"
	"testing"
	"time"

	"dashmart/internal/events"
	"dashmart/internal/model"
	"dashmart/internal/notify"
	"dashmart/internal/repository"
	"dashmart/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// services wires the full service stack onto one test database.
type services struct {
	product  repository.ProductRepository
	cart     service.CartService
	order    service.OrderService
	delivery service.DeliveryService
}

func newServices(testDB *TestDB) services {
	logger := zerolog.Nop()

	userRepo := repository.NewUserRepository(testDB.Pool, logger)
	shopRepo := repository.NewShopRepository(testDB.Pool, logger)
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	couponRepo := repository.NewCouponRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	partnerRepo := repository.NewPartnerRepository(testDB.Pool, logger)

	notifier := notify.NopNotifier{}
	publisher := events.NopPublisher{}

	return services{
		product: productRepo,
		cart:    service.NewCartService(cartRepo, productRepo, shopRepo, couponRepo, logger),
		order: service.NewOrderService(
			orderRepo, productRepo, shopRepo, cartRepo, couponRepo, userRepo, partnerRepo,
			notifier, publisher, logger,
		),
		delivery: service.NewDeliveryService(partnerRepo, orderRepo, notifier, publisher, logger),
	}
}

func TestOrderLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	svc := newServices(testDB)
	ctx := context.Background()

	CleanupDB(t, testDB.Pool)

	customerID := SeedUser(t, testDB.Pool, model.RoleCustomer)
	addressID := SeedAddress(t, testDB.Pool, customerID)
	managerID := SeedUser(t, testDB.Pool, model.RoleManager)
	shop := SeedShop(t, testDB.Pool, managerID, 12.97, 77.59)
	product := SeedProduct(t, testDB.Pool, shop.ID, "100", 5)

	// Customer fills the cart and places the order.
	cart, err := svc.cart.AddItem(ctx, customerID, product.ID, nil, 2)
	require.NoError(t, err)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(200)))

	order, err := svc.order.Create(ctx, customerID, &model.OrderRequest{
		ShopID:            shop.ID,
		DeliveryAddressID: addressID,
		PaymentMethod:     model.PaymentCOD,
		Items: []model.OrderItemRequest{
			{ProductID: product.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, order.OrderStatus)
	// subtotal 200 + tax 10 + delivery 30 + platform 4
	assert.True(t, order.Pricing.Total.Equal(decimal.NewFromInt(244)), "total = %s", order.Pricing.Total)

	// Stock was debited and the ordered lines left the cart.
	gotProduct, err := svc.product.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, gotProduct.Stock)

	cart, err = svc.cart.Get(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Shop drives the kitchen leg.
	for _, status := range []model.OrderStatus{
		model.StatusConfirmed, model.StatusPreparing, model.StatusReadyForPickup,
	} {
		order, err = svc.order.UpdateStatus(ctx, managerID, model.RoleManager, order.ID, status, "")
		require.NoError(t, err)
		assert.Equal(t, status, order.OrderStatus)
	}

	// A verified, available partner claims and delivers it.
	partnerUserID := SeedUser(t, testDB.Pool, model.RolePartner)
	partner, err := svc.delivery.Register(ctx, partnerUserID, &model.DeliveryPartner{
		Name: "Courier", Phone: "8888888888", VehicleType: "bike", VehicleNumber: "KA01AB1234",
	})
	require.NoError(t, err)
	require.NoError(t, svc.delivery.VerifyPartner(ctx, partner.ID, true))
	require.NoError(t, svc.delivery.SetAvailability(ctx, partnerUserID, true, true))

	available, err := svc.delivery.AvailableOrders(ctx, partnerUserID, 10)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, order.ID, available[0].ID)

	order, err = svc.delivery.Accept(ctx, partnerUserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, order.OrderStatus)

	order, err = svc.delivery.PickUp(ctx, partnerUserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPickedUp, order.OrderStatus)

	order, err = svc.delivery.StartDelivery(ctx, partnerUserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOutForDelivery, order.OrderStatus)

	order, err = svc.delivery.Complete(ctx, partnerUserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, order.OrderStatus)
	assert.Equal(t, model.PaymentPaid, order.PaymentStatus)

	// The completed delivery credits the order's full delivery fee.
	earnings, err := svc.delivery.Earnings(ctx, partnerUserID, time.Now())
	require.NoError(t, err)
	assert.True(t, earnings.Total.Equal(decimal.NewFromInt(30)), "total = %s", earnings.Total)
}

func TestOrderCancellation_RestocksItems_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	svc := newServices(testDB)
	ctx := context.Background()

	CleanupDB(t, testDB.Pool)

	customerID := SeedUser(t, testDB.Pool, model.RoleCustomer)
	addressID := SeedAddress(t, testDB.Pool, customerID)
	managerID := SeedUser(t, testDB.Pool, model.RoleManager)
	shop := SeedShop(t, testDB.Pool, managerID, 12.97, 77.59)
	product := SeedProduct(t, testDB.Pool, shop.ID, "100", 5)

	order, err := svc.order.Create(ctx, customerID, &model.OrderRequest{
		ShopID:            shop.ID,
		DeliveryAddressID: addressID,
		PaymentMethod:     model.PaymentCOD,
		Items: []model.OrderItemRequest{
			{ProductID: product.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	gotProduct, err := svc.product.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 2, gotProduct.Stock)

	order, err = svc.order.Cancel(ctx, customerID, model.RoleCustomer, order.ID, "ordered by mistake")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, order.OrderStatus)
	assert.Equal(t, model.CancelledByCustomer, order.CancelledBy)

	gotProduct, err = svc.product.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, gotProduct.Stock, "cancellation must credit the stock back")
}

func TestInsufficientStock_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	svc := newServices(testDB)
	ctx := context.Background()

	CleanupDB(t, testDB.Pool)

	customerID := SeedUser(t, testDB.Pool, model.RoleCustomer)
	addressID := SeedAddress(t, testDB.Pool, customerID)
	managerID := SeedUser(t, testDB.Pool, model.RoleManager)
	shop := SeedShop(t, testDB.Pool, managerID, 12.97, 77.59)
	inStock := SeedProduct(t, testDB.Pool, shop.ID, "100", 5)
	scarce := SeedProduct(t, testDB.Pool, shop.ID, "50", 1)

	_, err := svc.order.Create(ctx, customerID, &model.OrderRequest{
		ShopID:            shop.ID,
		DeliveryAddressID: addressID,
		PaymentMethod:     model.PaymentCOD,
		Items: []model.OrderItemRequest{
			{ProductID: inStock.ID, Quantity: 2},
			{ProductID: scarce.ID, Quantity: 3},
		},
	})
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	// The debit that succeeded before the failure was compensated.
	got, err := svc.product.GetByID(ctx, inStock.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	got, err = svc.product.GetByID(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}
