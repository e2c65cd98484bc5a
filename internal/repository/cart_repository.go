package repository

import (
	"context"
	"fmt"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// GetByUserID retrieves a user's cart with its items, or nil when the
// user has no cart yet.
func (r *cartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	query := `
		SELECT id, user_id, total_items, subtotal, discount, tax, delivery_fee, total,
		       coupon_code, coupon_discount, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	var (
		cart           model.Cart
		couponCode     *string
		couponDiscount *decimal.Decimal
	)

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&cart.ID, &cart.UserID, &cart.TotalItems, &cart.Subtotal, &cart.Discount,
		&cart.Tax, &cart.DeliveryFee, &cart.Total,
		&couponCode, &couponDiscount, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	if couponCode != nil && couponDiscount != nil {
		cart.AppliedCoupon = &model.AppliedCoupon{Code: *couponCode, Discount: *couponDiscount}
	}

	items, err := r.itemsFor(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return &cart, nil
}

func (r *cartRepository) itemsFor(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, shop_id, name, image, price, quantity,
		       variant_id, variant_name, variant_value, unit, unit_value,
		       discount, final_price, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, id
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.ShopID, &item.Name, &item.Image,
			&item.Price, &item.Quantity, &item.VariantID, &item.VariantName, &item.VariantValue,
			&item.Unit, &item.UnitValue, &item.Discount, &item.FinalPrice, &item.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// Create inserts an empty cart row for a user.
func (r *cartRepository) Create(ctx context.Context, cart *model.Cart) error {
	query := `
		INSERT INTO carts (id, user_id, total_items, subtotal, discount, tax, delivery_fee, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		cart.ID, cart.UserID, cart.TotalItems, cart.Subtotal, cart.Discount,
		cart.Tax, cart.DeliveryFee, cart.Total, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", cart.UserID.String()).Msg("failed to insert cart")
		return fmt.Errorf("failed to insert cart: %w", err)
	}

	return nil
}

// Save replaces the cart's items and totals in a single transaction.
// Items carry no independent identity across saves, so a delete-and-insert
// keeps the write path simple and the cart internally consistent.
func (r *cartRepository) Save(ctx context.Context, cart *model.Cart) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		couponCode     *string
		couponDiscount *decimal.Decimal
	)
	if cart.AppliedCoupon != nil {
		couponCode = &cart.AppliedCoupon.Code
		couponDiscount = &cart.AppliedCoupon.Discount
	}

	query := `
		UPDATE carts SET
			total_items = $2, subtotal = $3, discount = $4, tax = $5, delivery_fee = $6,
			total = $7, coupon_code = $8, coupon_discount = $9, updated_at = $10
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		cart.ID, cart.TotalItems, cart.Subtotal, cart.Discount, cart.Tax,
		cart.DeliveryFee, cart.Total, couponCode, couponDiscount, cart.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to update cart")
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	itemQuery := `
		INSERT INTO cart_items (
			id, cart_id, product_id, shop_id, name, image, price, quantity,
			variant_id, variant_name, variant_value, unit, unit_value,
			discount, final_price, added_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	for _, item := range cart.Items {
		_, err := tx.Exec(ctx, itemQuery,
			item.ID, cart.ID, item.ProductID, item.ShopID, item.Name, item.Image,
			item.Price, item.Quantity, item.VariantID, item.VariantName, item.VariantValue,
			item.Unit, item.UnitValue, item.Discount, item.FinalPrice, item.AddedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to insert cart item")
			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart save: %w", err)
	}

	return nil
}
