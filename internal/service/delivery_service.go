package service

import (
	"context"
	"fmt"
	"time"

	"dashmart/internal/events"
	"dashmart/internal/model"
	"dashmart/internal/notify"
	"dashmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// deliveryService implements DeliveryService.
type deliveryService struct {
	partnerRepo repository.PartnerRepository
	orderRepo   repository.OrderRepository
	notifier    notify.Notifier
	publisher   events.Publisher
	logger      zerolog.Logger
}

// NewDeliveryService creates a new delivery service.
func NewDeliveryService(
	partnerRepo repository.PartnerRepository,
	orderRepo repository.OrderRepository,
	notifier notify.Notifier,
	publisher events.Publisher,
	logger zerolog.Logger,
) DeliveryService {
	return &deliveryService{
		partnerRepo: partnerRepo,
		orderRepo:   orderRepo,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger.With().Str("service", "delivery").Logger(),
	}
}

// Register creates a partner profile for the calling identity.
func (s *deliveryService) Register(ctx context.Context, userID uuid.UUID, partner *model.DeliveryPartner) (*model.DeliveryPartner, error) {
	if partner.Name == "" || partner.Phone == "" {
		return nil, model.ValidationError("Name and phone are required")
	}
	if partner.VehicleType == "" || partner.VehicleNumber == "" {
		return nil, model.ValidationError("Vehicle details are required")
	}

	existing, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if existing != nil {
		return nil, model.ConflictError("A delivery partner profile already exists for this account")
	}

	now := time.Now()
	partner.ID = uuid.New()
	partner.UserID = userID
	partner.IsVerified = false
	partner.IsAvailable = false
	partner.IsOnline = false
	partner.CreatedAt = now
	partner.UpdatedAt = now

	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to register partner")
		return nil, fmt.Errorf("failed to register partner: %w", err)
	}

	s.logger.Info().
		Str("partner_id", partner.ID.String()).
		Str("user_id", userID.String()).
		Msg("delivery partner registered")

	return partner, nil
}

// GetProfile retrieves the partner profile for an identity.
func (s *deliveryService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.DeliveryPartner, error) {
	return s.requirePartner(ctx, userID)
}

// UpdateProfile modifies the partner-editable fields.
func (s *deliveryService) UpdateProfile(ctx context.Context, userID uuid.UUID, update *model.DeliveryPartner) (*model.DeliveryPartner, error) {
	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		partner.Name = update.Name
	}
	if update.Phone != "" {
		partner.Phone = update.Phone
	}
	if update.VehicleType != "" {
		partner.VehicleType = update.VehicleType
	}
	if update.VehicleNumber != "" {
		partner.VehicleNumber = update.VehicleNumber
	}
	if update.DrivingLicense != "" {
		partner.DrivingLicense = update.DrivingLicense
	}

	if err := s.partnerRepo.UpdateProfile(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

// SetAvailability toggles whether the partner accepts assignments.
func (s *deliveryService) SetAvailability(ctx context.Context, userID uuid.UUID, available, online bool) error {
	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return err
	}
	if available && !partner.IsVerified {
		return model.ErrPartnerNotVerified
	}

	return s.partnerRepo.SetAvailability(ctx, partner.ID, available, online)
}

// UpdateLocation records the partner's position and mirrors it onto
// their active order so the customer's tracking view follows along.
func (s *deliveryService) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.ValidationError("Invalid coordinates")
	}

	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.partnerRepo.UpdateLocation(ctx, partner.ID, lat, lng, now); err != nil {
		return err
	}

	active, err := s.orderRepo.GetActiveByPartner(ctx, partner.ID)
	if err != nil {
		return err
	}
	if active != nil {
		if err := s.orderRepo.SetPartnerLocation(ctx, active.ID, lat, lng); err != nil {
			return err
		}
		s.notifier.OrderUpdate(ctx, active.ID, "partner_location",
			model.GeoPoint{Latitude: lat, Longitude: lng})
	}

	return nil
}

// AvailableOrders lists unassigned ready orders a verified, available
// partner can claim.
func (s *deliveryService) AvailableOrders(ctx context.Context, userID uuid.UUID, limit int) ([]model.Order, error) {
	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !partner.IsVerified {
		return nil, model.ErrPartnerNotVerified
	}

	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.orderRepo.ListReadyForPickup(ctx, limit)
}

// Accept atomically claims an order for the partner. The repository's
// conditional update decides the race; the loser gets
// ErrOrderAlreadyAssigned.
func (s *deliveryService) Accept(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !partner.IsVerified {
		return nil, model.ErrPartnerNotVerified
	}
	if !partner.IsAvailable {
		return nil, model.InvalidStateError("Set yourself available before accepting orders")
	}

	active, err := s.orderRepo.GetActiveByPartner(ctx, partner.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, model.InvalidStateError("Complete your current delivery before accepting another order")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.OrderStatus != model.StatusReadyForPickup {
		return nil, model.ErrOrderNotReady
	}

	now := time.Now()
	change := model.StatusChange{
		Status:    model.StatusAssigned,
		Timestamp: now,
		Note:      fmt.Sprintf("Assigned to %s", partner.Name),
	}

	claimed, err := s.orderRepo.Assign(ctx, orderID, partner, change)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.logger.Debug().
			Str("order_id", orderID.String()).
			Str("partner_id", partner.ID.String()).
			Msg("lost assignment race")
		return nil, model.ErrOrderAlreadyAssigned
	}

	if err := s.partnerRepo.MarkAssigned(ctx, partner.ID); err != nil {
		s.logger.Error().Err(err).Str("partner_id", partner.ID.String()).Msg("failed to mark partner assigned")
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("partner_id", partner.ID.String()).
		Msg("order assigned")

	s.notifier.OrderUpdate(ctx, orderID, "partner_assigned", change)
	s.publisher.Publish(ctx, events.OrderEvent{
		Type:        events.OrderAssigned,
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		ShopID:      order.ShopID,
		Status:      model.StatusAssigned,
		OccurredAt:  now,
	})

	return s.orderRepo.GetByID(ctx, orderID)
}

// PickUp marks the assigned order picked up at the shop.
func (s *deliveryService) PickUp(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	return s.advance(ctx, userID, orderID, model.StatusPickedUp, "Order picked up from shop")
}

// StartDelivery marks the picked-up order out for delivery.
func (s *deliveryService) StartDelivery(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	return s.advance(ctx, userID, orderID, model.StatusOutForDelivery, "Out for delivery")
}

// advance moves the partner's own order along the delivery leg.
func (s *deliveryService) advance(ctx context.Context, userID, orderID uuid.UUID, status model.OrderStatus, note string) (*model.Order, error) {
	partner, order, err := s.requireAssignedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if !order.OrderStatus.CanTransitionTo(status) {
		return nil, model.InvalidStateError(
			fmt.Sprintf("Cannot move order from %s to %s", order.OrderStatus, status))
	}

	now := time.Now()
	change := model.StatusChange{Status: status, Timestamp: now, Note: note}
	if err := s.orderRepo.SetStatus(ctx, orderID, status, change); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("partner_id", partner.ID.String()).
		Str("status", string(status)).
		Msg("delivery progressed")

	s.notifier.OrderUpdate(ctx, orderID, "status_changed", change)
	s.publisher.Publish(ctx, events.OrderEvent{
		Type:        events.OrderStatusChanged,
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		ShopID:      order.ShopID,
		Status:      status,
		OccurredAt:  now,
	})

	return s.orderRepo.GetByID(ctx, orderID)
}

// Complete marks the order delivered, settles payment, frees the
// partner and appends the earning event.
func (s *deliveryService) Complete(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	partner, order, err := s.requireAssignedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if !order.OrderStatus.CanTransitionTo(model.StatusDelivered) {
		return nil, model.InvalidStateError(
			fmt.Sprintf("Cannot move order from %s to %s", order.OrderStatus, model.StatusDelivered))
	}

	now := time.Now()
	change := model.StatusChange{Status: model.StatusDelivered, Timestamp: now, Note: "Delivered"}
	if err := s.orderRepo.MarkDelivered(ctx, orderID, change); err != nil {
		return nil, err
	}

	if err := s.partnerRepo.MarkCompleted(ctx, partner.ID); err != nil {
		s.logger.Error().Err(err).Str("partner_id", partner.ID.String()).Msg("failed to mark partner completed")
	}

	// The partner earns the order's delivery fee.
	earning := order.Pricing.DeliveryFee
	if err := s.partnerRepo.RecordEarning(ctx, partner.ID, orderID, earning, now); err != nil {
		s.logger.Error().Err(err).
			Str("partner_id", partner.ID.String()).
			Str("order_id", orderID.String()).
			Msg("failed to record earning")
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("partner_id", partner.ID.String()).
		Str("earning", earning.StringFixed(2)).
		Msg("delivery completed")

	s.notifier.OrderUpdate(ctx, orderID, "delivered", change)
	s.notifier.PartnerUpdate(ctx, partner.ID, "delivery_completed", map[string]string{
		"orderId": orderID.String(),
		"earning": earning.StringFixed(2),
	})
	s.publisher.Publish(ctx, events.OrderEvent{
		Type:        events.OrderDelivered,
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		ShopID:      order.ShopID,
		Status:      model.StatusDelivered,
		Total:       order.Pricing.Total.StringFixed(2),
		OccurredAt:  now,
	})

	return s.orderRepo.GetByID(ctx, orderID)
}

// MyOrders lists the partner's orders, optionally filtered to a status
// set.
func (s *deliveryService) MyOrders(ctx context.Context, userID uuid.UUID, statuses []model.OrderStatus) ([]model.Order, error) {
	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, model.ValidationError("Unknown order status")
		}
	}
	return s.orderRepo.ListByPartner(ctx, partner.ID, statuses)
}

// ActiveOrder retrieves the partner's current in-flight order, or nil.
func (s *deliveryService) ActiveOrder(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetActiveByPartner(ctx, partner.ID)
}

// Earnings aggregates the earning event log into rolling buckets.
func (s *deliveryService) Earnings(ctx context.Context, userID uuid.UUID, now time.Time) (*model.Earnings, error) {
	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.partnerRepo.GetEarnings(ctx, partner.ID, now)
}

// ListPartners retrieves a page of partners for admins.
func (s *deliveryService) ListPartners(ctx context.Context, filter model.PartnerFilter) ([]model.DeliveryPartner, int, error) {
	return s.partnerRepo.List(ctx, filter)
}

// VerifyPartner toggles the admin verification flag.
func (s *deliveryService) VerifyPartner(ctx context.Context, partnerID uuid.UUID, verified bool) error {
	if err := s.partnerRepo.SetVerified(ctx, partnerID, verified); err != nil {
		return err
	}

	s.logger.Info().
		Str("partner_id", partnerID.String()).
		Bool("verified", verified).
		Msg("partner verification changed")

	s.notifier.PartnerUpdate(ctx, partnerID, "verification_changed", map[string]bool{"verified": verified})
	return nil
}

func (s *deliveryService) requirePartner(ctx context.Context, userID uuid.UUID) (*model.DeliveryPartner, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	if partner == nil {
		return nil, model.ErrPartnerNotFound
	}
	return partner, nil
}

func (s *deliveryService) requireAssignedOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.DeliveryPartner, *model.Order, error) {
	partner, err := s.requirePartner(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, nil, model.ErrOrderNotFound
	}
	if order.DeliveryPartnerID == nil || *order.DeliveryPartnerID != partner.ID {
		return nil, nil, model.ErrNotAssignedPartner
	}

	return partner, order, nil
}
