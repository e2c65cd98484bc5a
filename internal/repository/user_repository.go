package repository

import (
	"context"
	"fmt"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// GetByID retrieves a user by id.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, name, email, phone, role, created_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("user_id", id.String()).Msg("user not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &u, nil
}

// GetAddress retrieves one address from a user's address book.
func (r *userRepository) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error) {
	query := `
		SELECT id, user_id, address_line1, address_line2, city, state, pincode, landmark, latitude, longitude
		FROM user_addresses
		WHERE id = $1 AND user_id = $2
	`

	var a model.Address
	err := r.pool.QueryRow(ctx, query, addressID, userID).Scan(
		&a.ID, &a.UserID, &a.AddressLine1, &a.AddressLine2, &a.City, &a.State,
		&a.Pincode, &a.Landmark, &a.Latitude, &a.Longitude,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().
				Str("user_id", userID.String()).
				Str("address_id", addressID.String()).
				Msg("address not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", addressID.String()).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}

	return &a, nil
}
