package handler

import (
	"encoding/json"
	"net/http"

	"dashmart/internal/model"
	"dashmart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles cart-related HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// cartView is the cart response, with items additionally partitioned
// per shop for the checkout screen.
type cartView struct {
	*model.Cart
	ShopGroups []model.ShopGroup `json:"shopGroups"`
}

// Get handles GET /api/v1/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	cart, err := h.service.Get(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, cartView{Cart: cart, ShopGroups: cart.GroupByShop()})
}

// AddItem handles POST /api/v1/cart/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var req struct {
		ProductID uuid.UUID  `json:"productId"`
		VariantID *uuid.UUID `json:"variantId,omitempty"`
		Quantity  int        `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.ProductID == uuid.Nil {
		writeBadRequest(w, "productId is required")
		return
	}

	cart, err := h.service.AddItem(r.Context(), p.UserID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, cart)
}

// UpdateItem handles PUT /api/v1/cart/items/{itemId} requests.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		writeBadRequest(w, "invalid item ID format")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), p.UserID, itemID, req.Quantity)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		writeBadRequest(w, "invalid item ID format")
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), p.UserID, itemID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, cart)
}

// Clear handles DELETE /api/v1/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	cart, err := h.service.Clear(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, cart)
}

// ApplyCoupon handles POST /api/v1/cart/coupon requests.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "coupon code is required")
		return
	}

	cart, err := h.service.ApplyCoupon(r.Context(), p.UserID, req.Code)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, cart)
}

// RemoveCoupon handles DELETE /api/v1/cart/coupon requests.
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	cart, err := h.service.RemoveCoupon(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, cart)
}
