package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"dashmart/internal/model"
	"dashmart/internal/service"

	"github.com/rs/zerolog"
)

// ShopHandler handles shop-related HTTP requests.
type ShopHandler struct {
	service service.ShopService
	logger  zerolog.Logger
}

// NewShopHandler creates a new shop handler.
func NewShopHandler(service service.ShopService, logger zerolog.Logger) *ShopHandler {
	return &ShopHandler{
		service: service,
		logger:  logger.With().Str("handler", "shop").Logger(),
	}
}

// Nearby handles GET /api/v1/shops/nearby requests.
func (h *ShopHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, okLat := queryFloat(r, "lat")
	lng, okLng := queryFloat(r, "lng")
	if !okLat || !okLng {
		writeBadRequest(w, "lat and lng query parameters are required")
		return
	}

	radius, _ := queryFloat(r, "radius")

	filter := model.NearbyFilter{
		MinRating: 0,
		Limit:     queryInt(r, "limit", 50),
	}
	if categories := r.URL.Query().Get("category"); categories != "" {
		filter.Categories = strings.Split(categories, ",")
	}
	if minRating, ok := queryFloat(r, "minRating"); ok {
		filter.MinRating = minRating
	}

	shops, err := h.service.FindNearby(r.Context(), lat, lng, radius, filter)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, shops)
}

// GetByID handles GET /api/v1/shops/{id} requests.
func (h *ShopHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	shopID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid shop ID format")
		return
	}

	shop, err := h.service.GetByID(r.Context(), shopID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, shop)
}

// Create handles POST /api/v1/shops requests.
func (h *ShopHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var shop model.Shop
	if err := json.NewDecoder(r.Body).Decode(&shop); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), p.UserID, &shop)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// Update handles PUT /api/v1/shops/{id} requests.
func (h *ShopHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var shop model.Shop
	if err := json.NewDecoder(r.Body).Decode(&shop); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	shop.ID = shopID

	updated, err := h.service.Update(r.Context(), p.UserID, p.Role, &shop)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, updated)
}

// SetActive handles PATCH /api/v1/shops/{id}/active requests.
func (h *ShopHandler) SetActive(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.SetActive(r.Context(), p.UserID, p.Role, shopID, req.IsActive); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"isActive": req.IsActive})
}

// SetVerified handles PATCH /api/v1/admin/shops/{id}/verify requests.
func (h *ShopHandler) SetVerified(w http.ResponseWriter, r *http.Request) {
	shopID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid shop ID format")
		return
	}

	var req struct {
		IsVerified bool `json:"isVerified"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.SetVerified(r.Context(), shopID, req.IsVerified); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"isVerified": req.IsVerified})
}

// ListMine handles GET /api/v1/shops/mine requests.
func (h *ShopHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	shops, err := h.service.ListByOwner(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, shops)
}
