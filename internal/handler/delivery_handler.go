package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"dashmart/internal/model"
	"dashmart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DeliveryHandler handles delivery-partner HTTP requests.
type DeliveryHandler struct {
	service service.DeliveryService
	logger  zerolog.Logger
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(service service.DeliveryService, logger zerolog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
		logger:  logger.With().Str("handler", "delivery").Logger(),
	}
}

// Register handles POST /api/v1/delivery/register requests.
func (h *DeliveryHandler) Register(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var partner model.DeliveryPartner
	if err := json.NewDecoder(r.Body).Decode(&partner); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	created, err := h.service.Register(r.Context(), p.UserID, &partner)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// GetProfile handles GET /api/v1/delivery/profile requests.
func (h *DeliveryHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	partner, err := h.service.GetProfile(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, partner)
}

// UpdateProfile handles PUT /api/v1/delivery/profile requests.
func (h *DeliveryHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var partner model.DeliveryPartner
	if err := json.NewDecoder(r.Body).Decode(&partner); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), p.UserID, &partner)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, updated)
}

// SetAvailability handles PATCH /api/v1/delivery/availability requests.
func (h *DeliveryHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var req struct {
		IsAvailable bool `json:"isAvailable"`
		IsOnline    bool `json:"isOnline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.SetAvailability(r.Context(), p.UserID, req.IsAvailable, req.IsOnline); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{
		"isAvailable": req.IsAvailable,
		"isOnline":    req.IsOnline,
	})
}

// UpdateLocation handles POST /api/v1/delivery/location requests.
func (h *DeliveryHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.UpdateLocation(r.Context(), p.UserID, req.Latitude, req.Longitude); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"updated": true})
}

// AvailableOrders handles GET /api/v1/delivery/orders/available requests.
func (h *DeliveryHandler) AvailableOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	limit := queryInt(r, "limit", 20)

	orders, err := h.service.AvailableOrders(r.Context(), p.UserID, limit)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, orders)
}

// Accept handles POST /api/v1/delivery/orders/{id}/accept requests.
func (h *DeliveryHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept)
}

// PickUp handles POST /api/v1/delivery/orders/{id}/pickup requests.
func (h *DeliveryHandler) PickUp(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.PickUp)
}

// StartDelivery handles POST /api/v1/delivery/orders/{id}/start requests.
func (h *DeliveryHandler) StartDelivery(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.StartDelivery)
}

// Complete handles POST /api/v1/delivery/orders/{id}/complete requests.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

// MyOrders handles GET /api/v1/delivery/orders requests.
func (h *DeliveryHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var statuses []model.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := model.OrderStatus(s)
			if !status.Valid() {
				writeBadRequest(w, "invalid status filter")
				return
			}
			statuses = append(statuses, status)
		}
	}

	orders, err := h.service.MyOrders(r.Context(), p.UserID, statuses)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, orders)
}

// ActiveOrder handles GET /api/v1/delivery/orders/active requests.
func (h *DeliveryHandler) ActiveOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	order, err := h.service.ActiveOrder(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, order)
}

// Earnings handles GET /api/v1/delivery/earnings requests.
func (h *DeliveryHandler) Earnings(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	earnings, err := h.service.Earnings(r.Context(), p.UserID, time.Now())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, earnings)
}

// ListPartners handles GET /api/v1/admin/partners requests.
func (h *DeliveryHandler) ListPartners(w http.ResponseWriter, r *http.Request) {
	page, limit, _ := pagination(r)

	filter := model.PartnerFilter{
		Search:      r.URL.Query().Get("search"),
		IsVerified:  queryBoolPtr(r, "isVerified"),
		IsAvailable: queryBoolPtr(r, "isAvailable"),
		Page:        page,
		Limit:       limit,
	}

	partners, total, err := h.service.ListPartners(r.Context(), filter)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, PagedData{Items: partners, Total: total, Page: page, Limit: limit})
}

// VerifyPartner handles PATCH /api/v1/admin/partners/{id}/verify requests.
func (h *DeliveryHandler) VerifyPartner(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid partner ID format")
		return
	}

	var req struct {
		IsVerified bool `json:"isVerified"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.VerifyPartner(r.Context(), partnerID, req.IsVerified); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"isVerified": req.IsVerified})
}

// transition runs one delivery-leg order action resolved from the path.
func (h *DeliveryHandler) transition(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	orderID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid order ID format")
		return
	}

	order, err := action(r.Context(), p.UserID, orderID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, order)
}
