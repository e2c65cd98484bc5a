package handler

import (
	"encoding/json"
	"net/http"

	"dashmart/internal/model"
	"dashmart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/v1/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	order, err := h.service.Create(r.Context(), p.UserID, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, order)
}

// GetByID handles GET /api/v1/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.service.GetByID(r.Context(), p.UserID, p.Role, orderID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, order)
}

// ListMine handles GET /api/v1/orders requests for customers.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	status, ok := statusFilter(r)
	if !ok {
		writeBadRequest(w, "invalid status filter")
		return
	}
	page, limit, offset := pagination(r)

	orders, total, err := h.service.ListByUser(r.Context(), p.UserID, status, limit, offset)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, PagedData{Items: orders, Total: total, Page: page, Limit: limit})
}

// ListByShop handles GET /api/v1/shops/{id}/orders requests.
func (h *OrderHandler) ListByShop(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	shopID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid shop ID format")
		return
	}

	status, ok := statusFilter(r)
	if !ok {
		writeBadRequest(w, "invalid status filter")
		return
	}
	page, limit, offset := pagination(r)

	orders, total, err := h.service.ListByShop(r.Context(), p.UserID, p.Role, shopID, status, limit, offset)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, PagedData{Items: orders, Total: total, Page: page, Limit: limit})
}

// ListAll handles GET /api/v1/admin/orders requests.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(r)
	if !ok {
		writeBadRequest(w, "invalid status filter")
		return
	}
	search := r.URL.Query().Get("search")
	page, limit, offset := pagination(r)

	orders, total, err := h.service.ListAll(r.Context(), status, search, limit, offset)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, PagedData{Items: orders, Total: total, Page: page, Limit: limit})
}

// UpdateStatus handles PATCH /api/v1/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Status model.OrderStatus `json:"status"`
		Note   string            `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		writeBadRequest(w, "invalid order status")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), p.UserID, p.Role, orderID, req.Status, req.Note)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, order)
}

// AssignPartner handles POST /api/v1/orders/{id}/assign requests.
func (h *OrderHandler) AssignPartner(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		PartnerID uuid.UUID `json:"partnerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.PartnerID == uuid.Nil {
		writeBadRequest(w, "partnerId is required")
		return
	}

	order, err := h.service.AssignPartner(r.Context(), p.UserID, p.Role, orderID, req.PartnerID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, order)
}

// Cancel handles POST /api/v1/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	order, err := h.service.Cancel(r.Context(), p.UserID, p.Role, orderID, req.Reason)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, order)
}

// statusFilter parses an optional status query parameter. The boolean
// is false when a value is present but not a known status.
func statusFilter(r *http.Request) (model.OrderStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return "", true
	}
	status := model.OrderStatus(raw)
	return status, status.Valid()
}
