package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"dashmart/internal/model"
	"dashmart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, connects a pool, and
// applies the migrations under migrations/.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := repository.NewPool(ctx, connStr, nil)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	applyMigrations(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// applyMigrations runs every up migration in filename order.
func applyMigrations(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	dir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read migrations directory: %v", err)
	}

	var ups []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			ups = append(ups, entry.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		sql, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("failed to read migration %s: %v", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			t.Fatalf("failed to apply migration %s: %v", name, err)
		}
	}
}

// CleanupDB deletes all rows between tests, children first.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"partner_earnings", "order_status_history", "order_items", "orders",
		"delivery_partners", "cart_items", "carts", "coupons",
		"product_variants", "products", "shops", "user_addresses", "users",
	}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// SeedUser inserts a user and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, role model.Role) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, phone, role) VALUES ($1, $2, $3, $4, $5)`,
		id, "Test User", id.String()+"@example.com", "9999999999", role,
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// SeedAddress inserts an address for the user and returns its id.
func SeedAddress(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO user_addresses (id, user_id, address_line1, city, state, pincode, latitude, longitude)
		 VALUES ($1, $2, '12 Main Road', 'Bengaluru', 'KA', '560001', 12.97, 77.59)`,
		id, userID,
	)
	if err != nil {
		t.Fatalf("failed to seed address: %v", err)
	}
	return id
}

// SeedShop inserts an active shop owned by ownerID and returns it.
func SeedShop(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID, lat, lng float64) *model.Shop {
	t.Helper()

	shop := &model.Shop{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             "Test Shop",
		AddressLine1:     "1 Market Street",
		City:             "Bengaluru",
		State:            "KA",
		Pincode:          "560001",
		Categories:       []string{"grocery"},
		Latitude:         lat,
		Longitude:        lng,
		IsActive:         true,
		IsVerified:       true,
		DeliveryRadiusKm: 5,
		DeliveryFee:      decimal.NewFromInt(30),
		EstimatedMinutes: 30,
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO shops (
			id, owner_id, name, address_line1, city, state, pincode, categories,
			latitude, longitude, is_active, is_verified, delivery_radius_km, delivery_fee, estimated_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		shop.ID, shop.OwnerID, shop.Name, shop.AddressLine1, shop.City, shop.State,
		shop.Pincode, shop.Categories, shop.Latitude, shop.Longitude, shop.IsActive,
		shop.IsVerified, shop.DeliveryRadiusKm, shop.DeliveryFee, shop.EstimatedMinutes,
	)
	if err != nil {
		t.Fatalf("failed to seed shop: %v", err)
	}
	return shop
}

// SeedProduct inserts an in-stock product for the shop and returns it.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, shopID uuid.UUID, price string, stock int) *model.Product {
	t.Helper()

	product := &model.Product{
		ID:          uuid.New(),
		ShopID:      shopID,
		Name:        "Test Product",
		Category:    "grocery",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsAvailable: stock > 0,
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, shop_id, name, category, price, stock, is_available)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		product.ID, product.ShopID, product.Name, product.Category,
		product.Price, product.Stock, product.IsAvailable,
	)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}
