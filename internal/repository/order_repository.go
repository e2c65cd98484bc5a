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

const orderColumns = `
	id, order_number, user_id, shop_id,
	address_line1, address_line2, city, state, pincode, landmark, latitude, longitude,
	contact_number,
	subtotal, discount, tax, delivery_fee, platform_fee, total,
	coupon_code, coupon_discount,
	payment_method, payment_status, order_status, special_instructions,
	delivery_partner_id, delivery_partner_name, delivery_partner_phone,
	partner_latitude, partner_longitude,
	assigned_at, picked_up_at, estimated_delivery, actual_delivery,
	cancellation_reason, cancelled_by, cancelled_at,
	created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row, o *model.Order) error {
	var (
		couponCode     *string
		couponDiscount *decimal.Decimal
		partnerName    *string
		partnerPhone   *string
		partnerLat     *float64
		partnerLng     *float64
		cancelReason   *string
		cancelledBy    *string
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.ShopID,
		&o.DeliveryAddress.AddressLine1, &o.DeliveryAddress.AddressLine2,
		&o.DeliveryAddress.City, &o.DeliveryAddress.State, &o.DeliveryAddress.Pincode,
		&o.DeliveryAddress.Landmark, &o.DeliveryAddress.Latitude, &o.DeliveryAddress.Longitude,
		&o.ContactNumber,
		&o.Pricing.Subtotal, &o.Pricing.Discount, &o.Pricing.Tax,
		&o.Pricing.DeliveryFee, &o.Pricing.PlatformFee, &o.Pricing.Total,
		&couponCode, &couponDiscount,
		&o.PaymentMethod, &o.PaymentStatus, &o.OrderStatus, &o.SpecialInstructions,
		&o.DeliveryPartnerID, &partnerName, &partnerPhone,
		&partnerLat, &partnerLng,
		&o.AssignedAt, &o.PickedUpAt, &o.EstimatedDelivery, &o.ActualDelivery,
		&cancelReason, &cancelledBy, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if couponCode != nil && couponDiscount != nil {
		o.CouponApplied = &model.AppliedCoupon{Code: *couponCode, Discount: *couponDiscount}
	}
	if partnerName != nil {
		o.DeliveryPartnerName = *partnerName
	}
	if partnerPhone != nil {
		o.DeliveryPartnerPhone = *partnerPhone
	}
	if partnerLat != nil && partnerLng != nil {
		o.PartnerLocation = &model.GeoPoint{Latitude: *partnerLat, Longitude: *partnerLng}
	}
	if cancelReason != nil {
		o.CancellationReason = *cancelReason
	}
	if cancelledBy != nil {
		o.CancelledBy = model.CancelParty(*cancelledBy)
	}

	return nil
}

// BeginTx starts a transaction for multi-statement order creation.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts the order row inside the caller's transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	var (
		couponCode     *string
		couponDiscount *decimal.Decimal
	)
	if order.CouponApplied != nil {
		couponCode = &order.CouponApplied.Code
		couponDiscount = &order.CouponApplied.Discount
	}

	query := `
		INSERT INTO orders (
			id, order_number, user_id, shop_id,
			address_line1, address_line2, city, state, pincode, landmark, latitude, longitude,
			contact_number,
			subtotal, discount, tax, delivery_fee, platform_fee, total,
			coupon_code, coupon_discount,
			payment_method, payment_status, order_status, special_instructions,
			estimated_delivery, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.UserID, order.ShopID,
		order.DeliveryAddress.AddressLine1, order.DeliveryAddress.AddressLine2,
		order.DeliveryAddress.City, order.DeliveryAddress.State, order.DeliveryAddress.Pincode,
		order.DeliveryAddress.Landmark, order.DeliveryAddress.Latitude, order.DeliveryAddress.Longitude,
		order.ContactNumber,
		order.Pricing.Subtotal, order.Pricing.Discount, order.Pricing.Tax,
		order.Pricing.DeliveryFee, order.Pricing.PlatformFee, order.Pricing.Total,
		couponCode, couponDiscount,
		order.PaymentMethod, order.PaymentStatus, order.OrderStatus, order.SpecialInstructions,
		order.EstimatedDelivery, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to insert order")
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// CreateOrderItems inserts the frozen item snapshots inside the caller's
// transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	query := `
		INSERT INTO order_items (
			id, order_id, product_id, name, image, price, quantity,
			variant_id, variant_name, variant_value, unit, unit_value,
			discount, final_price, subtotal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	for _, item := range items {
		_, err := tx.Exec(ctx, query,
			item.ID, item.OrderID, item.ProductID, item.Name, item.Image,
			item.Price, item.Quantity, item.VariantID, item.VariantName, item.VariantValue,
			item.Unit, item.UnitValue, item.Discount, item.FinalPrice, item.Subtotal,
		)
		if err != nil {
			r.logger.Error().Err(err).Str("order_id", item.OrderID.String()).Msg("failed to insert order item")
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

// AppendStatusHistory appends one history entry inside the caller's
// transaction.
func (r *orderRepository) AppendStatusHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, change model.StatusChange) error {
	query := `
		INSERT INTO order_status_history (order_id, status, changed_at, note)
		VALUES ($1, $2, $3, $4)
	`

	_, err := tx.Exec(ctx, query, orderID, change.Status, change.Timestamp, change.Note)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to append status history")
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return nil
}

// GetByID retrieves an order with its items and status history.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o model.Order
	err := scanOrder(r.pool.QueryRow(ctx, query, id), &o)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	history, err := r.historyFor(ctx, id)
	if err != nil {
		return nil, err
	}
	o.StatusHistory = history

	return &o, nil
}

func (r *orderRepository) itemsFor(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, image, price, quantity,
		       variant_id, variant_name, variant_value, unit, unit_value,
		       discount, final_price, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Image,
			&item.Price, &item.Quantity, &item.VariantID, &item.VariantName, &item.VariantValue,
			&item.Unit, &item.UnitValue, &item.Discount, &item.FinalPrice, &item.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) historyFor(ctx context.Context, orderID uuid.UUID) ([]model.StatusChange, error) {
	query := `
		SELECT status, changed_at, note
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at, id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []model.StatusChange
	for rows.Next() {
		var change model.StatusChange
		if err := rows.Scan(&change.Status, &change.Timestamp, &change.Note); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		history = append(history, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return history, nil
}

func (r *orderRepository) list(ctx context.Context, where string, args []any, limit, offset int) ([]model.Order, int, error) {
	countQuery := `SELECT count(*) FROM orders ` + where

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC LIMIT $%d`, orderColumns, where, len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// ListByUser retrieves a page of a customer's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND order_status = $%d", len(args))
	}
	return r.list(ctx, where, args, limit, offset)
}

// ListByShop retrieves a page of a shop's orders, newest first.
func (r *orderRepository) ListByShop(ctx context.Context, shopID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error) {
	where := `WHERE shop_id = $1`
	args := []any{shopID}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND order_status = $%d", len(args))
	}
	return r.list(ctx, where, args, limit, offset)
}

// ListAll retrieves a page of all orders for admin views, with optional
// status and order-number search filters.
func (r *orderRepository) ListAll(ctx context.Context, status model.OrderStatus, search string, limit, offset int) ([]model.Order, int, error) {
	where := ""
	var args []any
	if status != "" {
		args = append(args, status)
		where = fmt.Sprintf("WHERE order_status = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		clause := fmt.Sprintf("order_number ILIKE $%d", len(args))
		if where == "" {
			where = "WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	return r.list(ctx, where, args, limit, offset)
}

// ListReadyForPickup retrieves unassigned orders awaiting a delivery
// partner, oldest first so the queue drains fairly.
func (r *orderRepository) ListReadyForPickup(ctx context.Context, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE order_status = 'ready_for_pickup' AND delivery_partner_id IS NULL
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query ready orders")
		return nil, fmt.Errorf("failed to query ready orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// ListByPartner retrieves a partner's orders, optionally filtered to a
// status set.
func (r *orderRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID, statuses []model.OrderStatus) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE delivery_partner_id = $1`
	args := []any{partnerID}
	if len(statuses) > 0 {
		args = append(args, statuses)
		query += fmt.Sprintf(" AND order_status = ANY($%d)", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("partner_id", partnerID.String()).Msg("failed to query partner orders")
		return nil, fmt.Errorf("failed to query partner orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// GetActiveByPartner retrieves the partner's current in-flight order, or
// nil when none exists.
func (r *orderRepository) GetActiveByPartner(ctx context.Context, partnerID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE delivery_partner_id = $1
		  AND order_status IN ('assigned_to_delivery', 'picked_up', 'out_for_delivery')
		ORDER BY assigned_at DESC
		LIMIT 1`

	var o model.Order
	err := scanOrder(r.pool.QueryRow(ctx, query, partnerID), &o)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("partner_id", partnerID.String()).Msg("failed to query active order")
		return nil, fmt.Errorf("failed to query active order: %w", err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

// SetStatus updates the order's status and appends a history entry in
// one transaction. Special timestamp fields track pickup separately.
func (r *orderRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, change model.StatusChange) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE orders SET order_status = $2, updated_at = $3`
	if status == model.StatusPickedUp {
		query += `, picked_up_at = $3`
	}
	query += ` WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, status, change.Timestamp)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set order status")
		return fmt.Errorf("failed to set order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	if err := r.AppendStatusHistory(ctx, tx, id, change); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}

	return nil
}

// MarkDelivered completes the order: delivered status, actual delivery
// time, payment settled, history appended.
func (r *orderRepository) MarkDelivered(ctx context.Context, id uuid.UUID, change model.StatusChange) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET order_status = 'delivered', payment_status = 'paid',
		    actual_delivery = $2, updated_at = $2
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, change.Timestamp)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order delivered")
		return fmt.Errorf("failed to mark order delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	if err := r.AppendStatusHistory(ctx, tx, id, change); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delivery: %w", err)
	}

	return nil
}

// Cancel records the cancellation with its metadata and appends a
// history entry in one transaction.
func (r *orderRepository) Cancel(ctx context.Context, id uuid.UUID, reason string, by model.CancelParty, change model.StatusChange) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET order_status = 'cancelled', cancellation_reason = $2, cancelled_by = $3,
		    cancelled_at = $4, updated_at = $4
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, reason, by, change.Timestamp)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to cancel order")
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	if err := r.AppendStatusHistory(ctx, tx, id, change); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return nil
}

// Assign atomically claims an unassigned ready order for a partner. The
// WHERE clause is the whole concurrency story: two partners racing for
// the same order produce exactly one matched row.
func (r *orderRepository) Assign(ctx context.Context, id uuid.UUID, partner *model.DeliveryPartner, change model.StatusChange) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The partner's current position seeds the order's tracking view;
	// later moves arrive through SetPartnerLocation.
	query := `
		UPDATE orders
		SET order_status = 'assigned_to_delivery',
		    delivery_partner_id = $2, delivery_partner_name = $3, delivery_partner_phone = $4,
		    partner_latitude = $5, partner_longitude = $6,
		    assigned_at = $7, updated_at = $7
		WHERE id = $1 AND delivery_partner_id IS NULL AND order_status = 'ready_for_pickup'
	`

	tag, err := tx.Exec(ctx, query, id, partner.ID, partner.Name, partner.Phone,
		partner.Latitude, partner.Longitude, change.Timestamp)
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", id.String()).
			Str("partner_id", partner.ID.String()).
			Msg("failed to assign order")
		return false, fmt.Errorf("failed to assign order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := r.AppendStatusHistory(ctx, tx, id, change); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit assignment: %w", err)
	}

	return true, nil
}

// SetPartnerLocation updates the courier position mirrored onto the
// order for customer tracking.
func (r *orderRepository) SetPartnerLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error {
	query := `
		UPDATE orders
		SET partner_latitude = $2, partner_longitude = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, lat, lng, time.Now())
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set partner location")
		return fmt.Errorf("failed to set partner location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}
