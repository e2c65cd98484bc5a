package handler

import (
	"encoding/json"
	"net/http"

	"dashmart/internal/model"
	"dashmart/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles catalogue-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// ListByShop handles GET /api/v1/shops/{id}/products requests.
func (h *ProductHandler) ListByShop(w http.ResponseWriter, r *http.Request) {
	shopID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid shop ID format")
		return
	}

	_, limit, offset := pagination(r)
	category := r.URL.Query().Get("category")
	availableOnly := queryBool(r, "availableOnly", false)

	products, err := h.service.ListByShop(r.Context(), shopID, category, availableOnly, limit, offset)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, products)
}

// GetByID handles GET /api/v1/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid product ID format")
		return
	}

	product, err := h.service.GetByID(r.Context(), productID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, product)
}

// Create handles POST /api/v1/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var product model.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), p.UserID, p.Role, &product)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// Update handles PUT /api/v1/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	productID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid product ID format")
		return
	}

	var product model.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	product.ID = productID

	updated, err := h.service.Update(r.Context(), p.UserID, p.Role, &product)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	productID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid product ID format")
		return
	}

	if err := h.service.Delete(r.Context(), p.UserID, p.Role, productID); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"deleted": true})
}

// SetStock handles PATCH /api/v1/products/{id}/stock requests.
func (h *ProductHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	productID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid product ID format")
		return
	}

	var req struct {
		Stock int `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Stock < 0 {
		writeBadRequest(w, "stock cannot be negative")
		return
	}

	if err := h.service.SetStock(r.Context(), p.UserID, p.Role, productID, req.Stock); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]int{"stock": req.Stock})
}

// SetAvailability handles PATCH /api/v1/products/{id}/availability requests.
func (h *ProductHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	productID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid product ID format")
		return
	}

	var req struct {
		IsAvailable bool `json:"isAvailable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.SetAvailability(r.Context(), p.UserID, p.Role, productID, req.IsAvailable); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"isAvailable": req.IsAvailable})
}
