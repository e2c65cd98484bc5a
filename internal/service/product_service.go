package service

import (
	"context"
	"fmt"
	"time"

	"dashmart/internal/model"
	"dashmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	shopRepo    repository.ShopRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	shopRepo repository.ShopRepository,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		shopRepo:    shopRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// Create adds a product to a shop the actor owns.
func (s *productService) Create(ctx context.Context, actorID uuid.UUID, role model.Role, product *model.Product) (*model.Product, error) {
	if err := s.requireCatalogueAccess(ctx, actorID, role, product.ShopID); err != nil {
		return nil, err
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	now := time.Now()
	product.ID = uuid.New()
	product.IsDeleted = false
	product.IsAvailable = product.Stock > 0
	product.CreatedAt = now
	product.UpdatedAt = now
	for i := range product.Variants {
		product.Variants[i].ID = uuid.New()
		product.Variants[i].ProductID = product.ID
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("shop_id", product.ShopID.String()).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("shop_id", product.ShopID.String()).
		Msg("product created")

	return product, nil
}

// GetByID retrieves a product with variants.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

// Update modifies a product owned by the actor.
func (s *productService) Update(ctx context.Context, actorID uuid.UUID, role model.Role, product *model.Product) (*model.Product, error) {
	existing, err := s.GetByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCatalogueAccess(ctx, actorID, role, existing.ShopID); err != nil {
		return nil, err
	}

	product.ShopID = existing.ShopID
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	for i := range product.Variants {
		if product.Variants[i].ID == uuid.Nil {
			product.Variants[i].ID = uuid.New()
		}
		product.Variants[i].ProductID = product.ID
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to update product")
		return nil, err
	}

	return s.GetByID(ctx, product.ID)
}

// Delete soft-deletes a product owned by the actor.
func (s *productService) Delete(ctx context.Context, actorID uuid.UUID, role model.Role, productID uuid.UUID) error {
	existing, err := s.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.requireCatalogueAccess(ctx, actorID, role, existing.ShopID); err != nil {
		return err
	}

	if err := s.productRepo.SoftDelete(ctx, productID); err != nil {
		return err
	}

	s.logger.Info().Str("product_id", productID.String()).Msg("product deleted")
	return nil
}

// ListByShop retrieves a shop's catalogue page.
func (s *productService) ListByShop(ctx context.Context, shopID uuid.UUID, category string, availableOnly bool, limit, offset int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.productRepo.ListByShop(ctx, shopID, category, availableOnly, limit, offset)
}

// SetStock replaces the stock counter.
func (s *productService) SetStock(ctx context.Context, actorID uuid.UUID, role model.Role, productID uuid.UUID, stock int) error {
	if stock < 0 {
		return model.ValidationError("Stock cannot be negative")
	}

	existing, err := s.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.requireCatalogueAccess(ctx, actorID, role, existing.ShopID); err != nil {
		return err
	}

	return s.productRepo.SetStock(ctx, productID, stock)
}

// SetAvailability toggles the availability flag.
func (s *productService) SetAvailability(ctx context.Context, actorID uuid.UUID, role model.Role, productID uuid.UUID, available bool) error {
	existing, err := s.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.requireCatalogueAccess(ctx, actorID, role, existing.ShopID); err != nil {
		return err
	}

	return s.productRepo.SetAvailability(ctx, productID, available)
}

func (s *productService) requireCatalogueAccess(ctx context.Context, actorID uuid.UUID, role model.Role, shopID uuid.UUID) error {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		return fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return model.ErrShopNotFound
	}
	return requireShopAccess(shop, actorID, role)
}

func validateProduct(product *model.Product) error {
	if product.Name == "" {
		return model.ValidationError("Product name is required")
	}
	if product.Price.IsNegative() {
		return model.ValidationError("Price cannot be negative")
	}
	if product.Stock < 0 {
		return model.ValidationError("Stock cannot be negative")
	}
	for _, v := range product.Variants {
		if v.Price.IsNegative() {
			return model.ValidationError("Variant price cannot be negative")
		}
		if v.Stock < 0 {
			return model.ValidationError("Variant stock cannot be negative")
		}
	}
	return nil
}
