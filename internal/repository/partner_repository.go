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

const partnerColumns = `
	id, user_id, name, email, phone, vehicle_type, vehicle_number, driving_license,
	is_verified, is_available, is_online, latitude, longitude, last_location_update,
	rating_average, rating_count, total_deliveries, completed_deliveries,
	is_deleted, created_at, updated_at`

// partnerRepository implements the PartnerRepository interface using
// PostgreSQL.
type partnerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPartnerRepository creates a new PostgreSQL-backed delivery partner
// repository.
func NewPartnerRepository(pool *pgxpool.Pool, logger zerolog.Logger) PartnerRepository {
	return &partnerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "partner").Logger(),
	}
}

func scanPartner(row pgx.Row, p *model.DeliveryPartner) error {
	return row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.VehicleType, &p.VehicleNumber,
		&p.DrivingLicense, &p.IsVerified, &p.IsAvailable, &p.IsOnline,
		&p.Latitude, &p.Longitude, &p.LastLocationUpdate,
		&p.RatingAverage, &p.RatingCount, &p.TotalDeliveries, &p.CompletedDeliveries,
		&p.IsDeleted, &p.CreatedAt, &p.UpdatedAt,
	)
}

// Create inserts a delivery partner profile.
func (r *partnerRepository) Create(ctx context.Context, partner *model.DeliveryPartner) error {
	query := `
		INSERT INTO delivery_partners (
			id, user_id, name, email, phone, vehicle_type, vehicle_number, driving_license,
			is_verified, is_available, is_online, latitude, longitude, last_location_update,
			rating_average, rating_count, total_deliveries, completed_deliveries,
			is_deleted, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21
		)
	`

	_, err := r.pool.Exec(ctx, query,
		partner.ID, partner.UserID, partner.Name, partner.Email, partner.Phone,
		partner.VehicleType, partner.VehicleNumber, partner.DrivingLicense,
		partner.IsVerified, partner.IsAvailable, partner.IsOnline,
		partner.Latitude, partner.Longitude, partner.LastLocationUpdate,
		partner.RatingAverage, partner.RatingCount, partner.TotalDeliveries,
		partner.CompletedDeliveries, partner.IsDeleted, partner.CreatedAt, partner.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", partner.ID.String()).Msg("failed to insert partner")
		return fmt.Errorf("failed to insert partner: %w", err)
	}

	return nil
}

// GetByID retrieves a partner by its own id, or nil when none exists.
func (r *partnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DeliveryPartner, error) {
	query := `SELECT ` + partnerColumns + ` FROM delivery_partners WHERE id = $1 AND NOT is_deleted`

	var p model.DeliveryPartner
	err := scanPartner(r.pool.QueryRow(ctx, query, id), &p)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("partner_id", id.String()).Msg("failed to query partner")
		return nil, fmt.Errorf("failed to query partner: %w", err)
	}

	return &p, nil
}

// GetByUserID retrieves the partner profile belonging to an identity, or
// nil when none exists.
func (r *partnerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DeliveryPartner, error) {
	query := `SELECT ` + partnerColumns + ` FROM delivery_partners WHERE user_id = $1 AND NOT is_deleted`

	var p model.DeliveryPartner
	err := scanPartner(r.pool.QueryRow(ctx, query, userID), &p)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query partner by user")
		return nil, fmt.Errorf("failed to query partner: %w", err)
	}

	return &p, nil
}

// UpdateProfile persists the partner-editable profile fields.
func (r *partnerRepository) UpdateProfile(ctx context.Context, partner *model.DeliveryPartner) error {
	query := `
		UPDATE delivery_partners
		SET name = $2, phone = $3, vehicle_type = $4, vehicle_number = $5,
		    driving_license = $6, updated_at = $7
		WHERE id = $1 AND NOT is_deleted
	`

	tag, err := r.pool.Exec(ctx, query,
		partner.ID, partner.Name, partner.Phone, partner.VehicleType,
		partner.VehicleNumber, partner.DrivingLicense, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", partner.ID.String()).Msg("failed to update partner")
		return fmt.Errorf("failed to update partner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPartnerNotFound
	}

	return nil
}

// UpdateLocation records the partner's reported position.
func (r *partnerRepository) UpdateLocation(ctx context.Context, id uuid.UUID, lat, lng float64, at time.Time) error {
	query := `
		UPDATE delivery_partners
		SET latitude = $2, longitude = $3, last_location_update = $4, updated_at = $4
		WHERE id = $1 AND NOT is_deleted
	`

	tag, err := r.pool.Exec(ctx, query, id, lat, lng, at)
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", id.String()).Msg("failed to update partner location")
		return fmt.Errorf("failed to update partner location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPartnerNotFound
	}

	return nil
}

// SetAvailability toggles the partner's availability and online flags.
func (r *partnerRepository) SetAvailability(ctx context.Context, id uuid.UUID, available, online bool) error {
	query := `
		UPDATE delivery_partners
		SET is_available = $2, is_online = $3, updated_at = $4
		WHERE id = $1 AND NOT is_deleted
	`

	tag, err := r.pool.Exec(ctx, query, id, available, online, time.Now())
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", id.String()).Msg("failed to set partner availability")
		return fmt.Errorf("failed to set partner availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPartnerNotFound
	}

	return nil
}

// SetVerified toggles the admin verification flag.
func (r *partnerRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE delivery_partners SET is_verified = $2, updated_at = now() WHERE id = $1 AND NOT is_deleted`,
		id, verified)
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", id.String()).Msg("failed to set partner verified")
		return fmt.Errorf("failed to set partner verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPartnerNotFound
	}

	return nil
}

// MarkAssigned flips the partner busy and counts the assignment.
func (r *partnerRepository) MarkAssigned(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE delivery_partners
		SET is_available = FALSE, total_deliveries = total_deliveries + 1, updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", id.String()).Msg("failed to mark partner assigned")
		return fmt.Errorf("failed to mark partner assigned: %w", err)
	}

	return nil
}

// MarkCompleted frees the partner and counts the completed delivery.
func (r *partnerRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE delivery_partners
		SET is_available = TRUE, completed_deliveries = completed_deliveries + 1, updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", id.String()).Msg("failed to mark partner completed")
		return fmt.Errorf("failed to mark partner completed: %w", err)
	}

	return nil
}

// RecordEarning appends one earning event. Aggregates are derived at
// read time, never stored.
func (r *partnerRepository) RecordEarning(ctx context.Context, partnerID, orderID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	query := `
		INSERT INTO partner_earnings (partner_id, order_id, amount, earned_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, partnerID, orderID, amount, at)
	if err != nil {
		r.logger.Error().Err(err).
			Str("partner_id", partnerID.String()).
			Str("order_id", orderID.String()).
			Msg("failed to record earning")
		return fmt.Errorf("failed to record earning: %w", err)
	}

	return nil
}

// GetEarnings aggregates the earning event log into rolling buckets
// relative to now.
func (r *partnerRepository) GetEarnings(ctx context.Context, partnerID uuid.UUID, now time.Time) (*model.Earnings, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE earned_at >= $2), 0),
			COALESCE(SUM(amount) FILTER (WHERE earned_at >= $3), 0),
			COALESCE(SUM(amount) FILTER (WHERE earned_at >= $4), 0),
			COALESCE(SUM(amount), 0)
		FROM partner_earnings
		WHERE partner_id = $1
	`

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(now.Weekday())
	startOfWeek := startOfDay.AddDate(0, 0, -weekday)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var e model.Earnings
	err := r.pool.QueryRow(ctx, query, partnerID, startOfDay, startOfWeek, startOfMonth).
		Scan(&e.Today, &e.ThisWeek, &e.ThisMonth, &e.Total)
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", partnerID.String()).Msg("failed to aggregate earnings")
		return nil, fmt.Errorf("failed to aggregate earnings: %w", err)
	}

	return &e, nil
}

// List retrieves a page of partners for admin views.
func (r *partnerRepository) List(ctx context.Context, filter model.PartnerFilter) ([]model.DeliveryPartner, int, error) {
	where := `WHERE NOT is_deleted`
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args))
	}
	if filter.IsVerified != nil {
		args = append(args, *filter.IsVerified)
		where += fmt.Sprintf(" AND is_verified = $%d", len(args))
	}
	if filter.IsAvailable != nil {
		args = append(args, *filter.IsAvailable)
		where += fmt.Sprintf(" AND is_available = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM delivery_partners `+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count partners")
		return nil, 0, fmt.Errorf("failed to count partners: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s FROM delivery_partners %s ORDER BY created_at DESC LIMIT $%d`, partnerColumns, where, len(args))
	args = append(args, (page-1)*limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query partners")
		return nil, 0, fmt.Errorf("failed to query partners: %w", err)
	}
	defer rows.Close()

	var partners []model.DeliveryPartner
	for rows.Next() {
		var p model.DeliveryPartner
		if err := scanPartner(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("failed to scan partner: %w", err)
		}
		partners = append(partners, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating partners: %w", err)
	}

	return partners, total, nil
}
