package handler

import (
	"encoding/json"
	"net/http"

	"dashmart/internal/model"
	"dashmart/internal/service"

	"github.com/rs/zerolog"
)

// CouponHandler handles coupon administration HTTP requests.
type CouponHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// Create handles POST /api/v1/admin/coupons requests.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, model.ErrUserNotFound, h.logger)
		return
	}

	var coupon model.Coupon
	if err := json.NewDecoder(r.Body).Decode(&coupon); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), p.UserID, &coupon)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// List handles GET /api/v1/admin/coupons requests.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	_, limit, offset := pagination(r)
	activeOnly := queryBool(r, "activeOnly", false)

	coupons, err := h.service.List(r.Context(), activeOnly, limit, offset)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, coupons)
}

// SetActive handles PATCH /api/v1/admin/coupons/{id}/active requests.
func (h *CouponHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	couponID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid coupon ID format")
		return
	}

	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.SetActive(r.Context(), couponID, req.IsActive); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"isActive": req.IsActive})
}
