package repository

import (
	"context"
	"fmt"
	"time"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const productColumns = `
	id, shop_id, name, description, category, images, unit, unit_value, price, stock,
	is_available, discount_type, discount_value, discount_start, discount_end,
	is_deleted, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	var (
		discountType  *string
		discountValue *decimal.Decimal
		discountStart *time.Time
		discountEnd   *time.Time
	)

	err := row.Scan(
		&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Category, &p.Images, &p.Unit,
		&p.UnitValue, &p.Price, &p.Stock, &p.IsAvailable,
		&discountType, &discountValue, &discountStart, &discountEnd,
		&p.IsDeleted, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if discountType != nil && discountValue != nil {
		p.Discount = &model.Discount{
			Type:      model.DiscountType(*discountType),
			Value:     *discountValue,
			StartDate: discountStart,
			EndDate:   discountEnd,
		}
	}

	return nil
}

func discountFields(p *model.Product) (dType *string, dValue *decimal.Decimal, dStart, dEnd *time.Time) {
	if p.Discount == nil {
		return nil, nil, nil, nil
	}
	t := string(p.Discount.Type)
	v := p.Discount.Value
	return &t, &v, p.Discount.StartDate, p.Discount.EndDate
}

// Create inserts a product with its variants.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	dType, dValue, dStart, dEnd := discountFields(product)

	query := `
		INSERT INTO products (
			id, shop_id, name, description, category, images, unit, unit_value, price, stock,
			is_available, discount_type, discount_value, discount_start, discount_end,
			is_deleted, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = tx.Exec(ctx, query,
		product.ID, product.ShopID, product.Name, product.Description, product.Category,
		product.Images, product.Unit, product.UnitValue, product.Price, product.Stock,
		product.IsAvailable, dType, dValue, dStart, dEnd,
		product.IsDeleted, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to insert product")
		return fmt.Errorf("failed to insert product: %w", err)
	}

	if err := r.insertVariants(ctx, tx, product); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product insert: %w", err)
	}

	return nil
}

func (r *productRepository) insertVariants(ctx context.Context, tx pgx.Tx, product *model.Product) error {
	if len(product.Variants) == 0 {
		return nil
	}

	query := `
		INSERT INTO product_variants (id, product_id, name, value, price, stock, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, v := range product.Variants {
		_, err := tx.Exec(ctx, query, v.ID, product.ID, v.Name, v.Value, v.Price, v.Stock, v.IsAvailable)
		if err != nil {
			r.logger.Error().Err(err).Str("variant_id", v.ID.String()).Msg("failed to insert variant")
			return fmt.Errorf("failed to insert variant: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a product with its variants and discount.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND NOT is_deleted`

	var p model.Product
	err := scanProduct(r.pool.QueryRow(ctx, query, id), &p)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	variants, err := r.variantsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	return &p, nil
}

func (r *productRepository) variantsFor(ctx context.Context, productID uuid.UUID) ([]model.Variant, error) {
	query := `
		SELECT id, product_id, name, value, price, stock, is_available
		FROM product_variants
		WHERE product_id = $1
		ORDER BY name, value
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query variants")
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []model.Variant
	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Value, &v.Price, &v.Stock, &v.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, nil
}

// Update persists mutable product fields and replaces variants.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	dType, dValue, dStart, dEnd := discountFields(product)

	query := `
		UPDATE products SET
			name = $2, description = $3, category = $4, images = $5, unit = $6, unit_value = $7,
			price = $8, is_available = $9, discount_type = $10, discount_value = $11,
			discount_start = $12, discount_end = $13, updated_at = $14
		WHERE id = $1 AND NOT is_deleted
	`

	tag, err := tx.Exec(ctx, query,
		product.ID, product.Name, product.Description, product.Category, product.Images,
		product.Unit, product.UnitValue, product.Price, product.IsAvailable,
		dType, dValue, dStart, dEnd, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, product.ID); err != nil {
		return fmt.Errorf("failed to replace variants: %w", err)
	}
	if err := r.insertVariants(ctx, tx, product); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product update: %w", err)
	}

	return nil
}

// SoftDelete hides a product from the catalogue.
func (r *productRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET is_deleted = TRUE, is_available = FALSE, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to soft delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// ListByShop retrieves a shop's catalogue page.
func (r *productRepository) ListByShop(ctx context.Context, shopID uuid.UUID, category string, availableOnly bool, limit, offset int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE shop_id = $1 AND NOT is_deleted`
	args := []any{shopID}

	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if availableOnly {
		query += " AND is_available"
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("shop_id", shopID.String()).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// DebitStock atomically decrements stock if at least quantity remains.
// The condition closes the overselling race: two concurrent debits can
// never take the counter below zero.
func (r *productRepository) DebitStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	query := `
		UPDATE products
		SET stock = stock - $2, is_available = (stock - $2 > 0), updated_at = now()
		WHERE id = $1 AND NOT is_deleted AND stock >= $2
	`

	tag, err := r.pool.Exec(ctx, query, id, quantity)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", id.String()).
			Int("quantity", quantity).
			Msg("failed to debit stock")
		return false, fmt.Errorf("failed to debit stock: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CreditStock atomically increments stock.
func (r *productRepository) CreditStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, is_available = TRUE, updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, quantity)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", id.String()).
			Int("quantity", quantity).
			Msg("failed to credit stock")
		return fmt.Errorf("failed to credit stock: %w", err)
	}

	return nil
}

// SetStock replaces the stock counter and refreshes availability.
func (r *productRepository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = $2, is_available = ($2 > 0), updated_at = now() WHERE id = $1 AND NOT is_deleted`,
		id, stock)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to set stock")
		return fmt.Errorf("failed to set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// SetAvailability toggles the manager-controlled availability flag.
func (r *productRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET is_available = $2, updated_at = now() WHERE id = $1 AND NOT is_deleted`,
		id, available)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to set availability")
		return fmt.Errorf("failed to set availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}
