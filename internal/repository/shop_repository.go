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
)

const shopColumns = `
	id, owner_id, name, description, address_line1, address_line2, city, state, pincode,
	contact_number, email, categories, longitude, latitude, is_active, is_verified,
	rating_average, rating_count, delivery_radius_km, minimum_order_amount, delivery_fee,
	estimated_minutes, created_at, updated_at`

// shopRepository implements the ShopRepository interface using PostgreSQL.
type shopRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewShopRepository creates a new PostgreSQL-backed shop repository.
func NewShopRepository(pool *pgxpool.Pool, logger zerolog.Logger) ShopRepository {
	return &shopRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "shop").Logger(),
	}
}

func scanShop(row pgx.Row, s *model.Shop) error {
	return row.Scan(
		&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.AddressLine1, &s.AddressLine2,
		&s.City, &s.State, &s.Pincode, &s.ContactNumber, &s.Email, &s.Categories,
		&s.Longitude, &s.Latitude, &s.IsActive, &s.IsVerified, &s.RatingAverage,
		&s.RatingCount, &s.DeliveryRadiusKm, &s.MinimumOrderAmount, &s.DeliveryFee,
		&s.EstimatedMinutes, &s.CreatedAt, &s.UpdatedAt,
	)
}

// Create inserts a new shop.
func (r *shopRepository) Create(ctx context.Context, shop *model.Shop) error {
	query := `
		INSERT INTO shops (
			id, owner_id, name, description, address_line1, address_line2, city, state, pincode,
			contact_number, email, categories, longitude, latitude, is_active, is_verified,
			rating_average, rating_count, delivery_radius_km, minimum_order_amount, delivery_fee,
			estimated_minutes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24
		)
	`

	_, err := r.pool.Exec(ctx, query,
		shop.ID, shop.OwnerID, shop.Name, shop.Description, shop.AddressLine1, shop.AddressLine2,
		shop.City, shop.State, shop.Pincode, shop.ContactNumber, shop.Email, shop.Categories,
		shop.Longitude, shop.Latitude, shop.IsActive, shop.IsVerified,
		shop.RatingAverage, shop.RatingCount, shop.DeliveryRadiusKm, shop.MinimumOrderAmount,
		shop.DeliveryFee, shop.EstimatedMinutes, shop.CreatedAt, shop.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("shop_id", shop.ID.String()).Msg("failed to insert shop")
		return fmt.Errorf("failed to insert shop: %w", err)
	}

	return nil
}

// GetByID retrieves a single shop by its ID.
func (r *shopRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE id = $1`

	var s model.Shop
	err := scanShop(r.pool.QueryRow(ctx, query, id), &s)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("shop_id", id.String()).Msg("shop not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("shop_id", id.String()).Msg("failed to query shop")
		return nil, fmt.Errorf("failed to query shop: %w", err)
	}

	return &s, nil
}

// Update persists mutable shop fields.
func (r *shopRepository) Update(ctx context.Context, shop *model.Shop) error {
	query := `
		UPDATE shops SET
			name = $2, description = $3, address_line1 = $4, address_line2 = $5, city = $6,
			state = $7, pincode = $8, contact_number = $9, email = $10, categories = $11,
			longitude = $12, latitude = $13, delivery_radius_km = $14, minimum_order_amount = $15,
			delivery_fee = $16, estimated_minutes = $17, updated_at = $18
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		shop.ID, shop.Name, shop.Description, shop.AddressLine1, shop.AddressLine2, shop.City,
		shop.State, shop.Pincode, shop.ContactNumber, shop.Email, shop.Categories,
		shop.Longitude, shop.Latitude, shop.DeliveryRadiusKm, shop.MinimumOrderAmount,
		shop.DeliveryFee, shop.EstimatedMinutes, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("shop_id", shop.ID.String()).Msg("failed to update shop")
		return fmt.Errorf("failed to update shop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrShopNotFound
	}

	return nil
}

// SetVerified toggles the admin verification flag.
func (r *shopRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return r.setFlag(ctx, id, "is_verified", verified)
}

// SetActive toggles whether the shop accepts orders.
func (r *shopRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.setFlag(ctx, id, "is_active", active)
}

func (r *shopRepository) setFlag(ctx context.Context, id uuid.UUID, column string, value bool) error {
	query := fmt.Sprintf(`UPDATE shops SET %s = $2, updated_at = now() WHERE id = $1`, column)

	tag, err := r.pool.Exec(ctx, query, id, value)
	if err != nil {
		r.logger.Error().Err(err).Str("shop_id", id.String()).Str("column", column).Msg("failed to update shop flag")
		return fmt.Errorf("failed to update shop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrShopNotFound
	}

	return nil
}

// ListByOwner retrieves the shops owned by a user.
func (r *shopRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error().Err(err).Str("owner_id", ownerID.String()).Msg("failed to query shops by owner")
		return nil, fmt.Errorf("failed to query shops: %w", err)
	}
	defer rows.Close()

	var shops []model.Shop
	for rows.Next() {
		var s model.Shop
		if err := scanShop(rows, &s); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan shop row")
			return nil, fmt.Errorf("failed to scan shop: %w", err)
		}
		shops = append(shops, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating shop rows")
		return nil, fmt.Errorf("error iterating shops: %w", err)
	}

	return shops, nil
}

// FindNearby returns active, verified shops within maxDistanceKm of the
// point, nearest first. The haversine runs inside the query so the
// distance both filters and orders the candidates.
func (r *shopRepository) FindNearby(ctx context.Context, lat, lng, maxDistanceKm float64, filter model.NearbyFilter) ([]model.NearbyShop, error) {
	query := `
		SELECT ` + shopColumns + `, distance_km FROM (
			SELECT *,
				6371 * acos(least(1.0,
					cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2))
					+ sin(radians($1)) * sin(radians(latitude))
				)) AS distance_km
			FROM shops
			WHERE is_active AND is_verified
		) nearby
		WHERE distance_km <= $3
	`

	args := []any{lat, lng, maxDistanceKm}

	if len(filter.Categories) > 0 {
		args = append(args, filter.Categories)
		query += fmt.Sprintf(" AND categories && $%d", len(args))
	}
	if filter.MinRating > 0 {
		args = append(args, filter.MinRating)
		query += fmt.Sprintf(" AND rating_average >= $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY distance_km LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lng", lng).
			Float64("max_distance_km", maxDistanceKm).
			Msg("failed to query nearby shops")
		return nil, fmt.Errorf("failed to query nearby shops: %w", err)
	}
	defer rows.Close()

	var shops []model.NearbyShop
	for rows.Next() {
		var n model.NearbyShop
		err := rows.Scan(
			&n.ID, &n.OwnerID, &n.Name, &n.Description, &n.AddressLine1, &n.AddressLine2,
			&n.City, &n.State, &n.Pincode, &n.ContactNumber, &n.Email, &n.Categories,
			&n.Longitude, &n.Latitude, &n.IsActive, &n.IsVerified, &n.RatingAverage,
			&n.RatingCount, &n.DeliveryRadiusKm, &n.MinimumOrderAmount, &n.DeliveryFee,
			&n.EstimatedMinutes, &n.CreatedAt, &n.UpdatedAt, &n.DistanceKm,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan nearby shop row")
			return nil, fmt.Errorf("failed to scan nearby shop: %w", err)
		}
		shops = append(shops, n)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating nearby shop rows")
		return nil, fmt.Errorf("error iterating nearby shops: %w", err)
	}

	return shops, nil
}
