package repository

import (
	"context"
	"fmt"
	"strings"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

const couponColumns = `
	id, code, description, type, value, max_discount, min_order_amount, is_global,
	applicable_shops, valid_from, valid_until, used_count, is_active, created_by, created_at`

func scanCoupon(row pgx.Row, c *model.Coupon) error {
	return row.Scan(
		&c.ID, &c.Code, &c.Description, &c.Type, &c.Value, &c.MaxDiscount,
		&c.MinOrderAmount, &c.IsGlobal, &c.ApplicableShops, &c.ValidFrom,
		&c.ValidUntil, &c.UsedCount, &c.IsActive, &c.CreatedBy, &c.CreatedAt,
	)
}

// Create inserts a coupon.
func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	query := `
		INSERT INTO coupons (
			id, code, description, type, value, max_discount, min_order_amount, is_global,
			applicable_shops, valid_from, valid_until, used_count, is_active, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.pool.Exec(ctx, query,
		coupon.ID, coupon.Code, coupon.Description, coupon.Type, coupon.Value,
		coupon.MaxDiscount, coupon.MinOrderAmount, coupon.IsGlobal, coupon.ApplicableShops,
		coupon.ValidFrom, coupon.ValidUntil, coupon.UsedCount, coupon.IsActive,
		coupon.CreatedBy, coupon.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("code", coupon.Code).Msg("failed to insert coupon")
		return fmt.Errorf("failed to insert coupon: %w", err)
	}

	return nil
}

// GetByCode retrieves a coupon by its code, or nil when none exists.
// Codes are matched case-insensitively against the uppercase stored form.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	var c model.Coupon
	err := scanCoupon(r.pool.QueryRow(ctx, query, strings.ToUpper(code)), &c)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// IncrementUsage bumps the coupon's usage counter.
func (r *couponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1 WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to increment coupon usage")
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	return nil
}

// List retrieves a page of coupons.
func (r *couponRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons`
	if activeOnly {
		query += ` WHERE is_active AND valid_until >= now()`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		var c model.Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// SetActive toggles the coupon's active flag.
func (r *couponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE coupons SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to set coupon active")
		return fmt.Errorf("failed to set coupon active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}

	return nil
}
