package service

import (
	"context"
	"fmt"
	"time"

	"dashmart/internal/geo"
	"dashmart/internal/model"
	"dashmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultNearbyRadiusKm = 10

// shopService implements ShopService.
type shopService struct {
	shopRepo repository.ShopRepository
	logger   zerolog.Logger
}

// NewShopService creates a new shop service.
func NewShopService(shopRepo repository.ShopRepository, logger zerolog.Logger) ShopService {
	return &shopService{
		shopRepo: shopRepo,
		logger:   logger.With().Str("service", "shop").Logger(),
	}
}

// Create registers a shop owned by the calling manager.
func (s *shopService) Create(ctx context.Context, ownerID uuid.UUID, shop *model.Shop) (*model.Shop, error) {
	if err := validateShop(shop); err != nil {
		return nil, err
	}

	now := time.Now()
	shop.ID = uuid.New()
	shop.OwnerID = ownerID
	shop.IsActive = true
	shop.IsVerified = false
	shop.RatingAverage = 0
	shop.RatingCount = 0
	if shop.DeliveryRadiusKm <= 0 {
		shop.DeliveryRadiusKm = 5
	}
	if shop.EstimatedMinutes <= 0 {
		shop.EstimatedMinutes = 30
	}
	shop.CreatedAt = now
	shop.UpdatedAt = now

	if err := s.shopRepo.Create(ctx, shop); err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID.String()).Msg("failed to create shop")
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}

	s.logger.Info().
		Str("shop_id", shop.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("shop created")

	return shop, nil
}

// GetByID retrieves a shop.
func (s *shopService) GetByID(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	shop, err := s.shopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return nil, model.ErrShopNotFound
	}
	return shop, nil
}

// Update modifies a shop. Only the owner or an admin may update.
func (s *shopService) Update(ctx context.Context, actorID uuid.UUID, role model.Role, shop *model.Shop) (*model.Shop, error) {
	existing, err := s.GetByID(ctx, shop.ID)
	if err != nil {
		return nil, err
	}

	if err := requireShopAccess(existing, actorID, role); err != nil {
		return nil, err
	}
	if err := validateShop(shop); err != nil {
		return nil, err
	}

	shop.OwnerID = existing.OwnerID
	shop.IsVerified = existing.IsVerified
	shop.UpdatedAt = time.Now()

	if err := s.shopRepo.Update(ctx, shop); err != nil {
		s.logger.Error().Err(err).Str("shop_id", shop.ID.String()).Msg("failed to update shop")
		return nil, err
	}

	return s.GetByID(ctx, shop.ID)
}

// SetActive toggles whether the shop accepts orders.
func (s *shopService) SetActive(ctx context.Context, actorID uuid.UUID, role model.Role, shopID uuid.UUID, active bool) error {
	shop, err := s.GetByID(ctx, shopID)
	if err != nil {
		return err
	}

	if err := requireShopAccess(shop, actorID, role); err != nil {
		return err
	}

	if err := s.shopRepo.SetActive(ctx, shopID, active); err != nil {
		return err
	}

	s.logger.Info().
		Str("shop_id", shopID.String()).
		Bool("active", active).
		Msg("shop active flag changed")

	return nil
}

// SetVerified toggles the admin verification flag.
func (s *shopService) SetVerified(ctx context.Context, shopID uuid.UUID, verified bool) error {
	if err := s.shopRepo.SetVerified(ctx, shopID, verified); err != nil {
		return err
	}

	s.logger.Info().
		Str("shop_id", shopID.String()).
		Bool("verified", verified).
		Msg("shop verification changed")

	return nil
}

// ListByOwner retrieves the calling manager's shops.
func (s *shopService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Shop, error) {
	return s.shopRepo.ListByOwner(ctx, ownerID)
}

// FindNearby retrieves active shops around a point. The repository does
// the distance filter and ordering; deliverability is annotated here
// against each shop's own radius.
func (s *shopService) FindNearby(ctx context.Context, lat, lng, maxDistanceKm float64, filter model.NearbyFilter) ([]model.NearbyShop, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, model.ValidationError("Invalid coordinates")
	}
	if maxDistanceKm <= 0 {
		maxDistanceKm = defaultNearbyRadiusKm
	}

	shops, err := s.shopRepo.FindNearby(ctx, lat, lng, maxDistanceKm, filter)
	if err != nil {
		s.logger.Error().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("nearby query failed")
		return nil, fmt.Errorf("failed to find nearby shops: %w", err)
	}

	for i := range shops {
		shops[i].DistanceKm = geo.RoundKm(shops[i].DistanceKm)
		shops[i].IsInDeliveryRange = shops[i].DistanceKm <= shops[i].DeliveryRadiusKm
	}

	return shops, nil
}

func requireShopAccess(shop *model.Shop, actorID uuid.UUID, role model.Role) error {
	if role == model.RoleAdmin {
		return nil
	}
	if shop.OwnerID != actorID {
		return model.ForbiddenError("You do not own this shop")
	}
	return nil
}

func validateShop(shop *model.Shop) error {
	if shop.Name == "" {
		return model.ValidationError("Shop name is required")
	}
	if shop.Latitude < -90 || shop.Latitude > 90 || shop.Longitude < -180 || shop.Longitude > 180 {
		return model.ValidationError("Invalid shop coordinates")
	}
	if shop.MinimumOrderAmount.IsNegative() || shop.DeliveryFee.IsNegative() {
		return model.ValidationError("Amounts cannot be negative")
	}
	return nil
}
