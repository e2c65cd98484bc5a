package model

import "net/http"

// Standard error codes for API responses
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeBelowMinimum      = "BELOW_MINIMUM"
	ErrCodeUnavailable       = "UNAVAILABLE"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure carrying a stable code and the
// HTTP status it maps to at the edge.
type DomainError struct {
	Code    string
	Status  int
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(code string, status int, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Status:  status,
		Message: message,
	}
}

// NotFoundError creates a NOT_FOUND domain error.
func NotFoundError(message string) *DomainError {
	return NewDomainError(ErrCodeNotFound, http.StatusNotFound, message)
}

// ForbiddenError creates a FORBIDDEN domain error.
func ForbiddenError(message string) *DomainError {
	return NewDomainError(ErrCodeForbidden, http.StatusForbidden, message)
}

// ConflictError creates a CONFLICT domain error.
func ConflictError(message string) *DomainError {
	return NewDomainError(ErrCodeConflict, http.StatusConflict, message)
}

// InvalidStateError creates an INVALID_STATE domain error.
func InvalidStateError(message string) *DomainError {
	return NewDomainError(ErrCodeInvalidState, http.StatusConflict, message)
}

// ValidationError creates a VALIDATION_FAILED domain error.
func ValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidationFailed, http.StatusBadRequest, message)
}

// Common domain errors
var (
	ErrShopNotFound         = NotFoundError("Shop not found")
	ErrProductNotFound      = NotFoundError("Product not found")
	ErrVariantNotFound      = NotFoundError("Selected variant not found for this product")
	ErrOrderNotFound        = NotFoundError("Order not found")
	ErrCartNotFound         = NotFoundError("Cart not found")
	ErrCartItemNotFound     = NotFoundError("Item not found in cart")
	ErrCouponNotFound       = NotFoundError("Invalid coupon code")
	ErrPartnerNotFound      = NotFoundError("Delivery partner not found")
	ErrAddressNotFound      = NotFoundError("Delivery address not found")
	ErrUserNotFound         = NotFoundError("User not found")
	ErrShopInactive         = NewDomainError(ErrCodeUnavailable, http.StatusBadRequest, "Shop is currently not accepting orders")
	ErrProductUnavailable   = NewDomainError(ErrCodeUnavailable, http.StatusBadRequest, "Product is currently unavailable")
	ErrVariantUnavailable   = NewDomainError(ErrCodeUnavailable, http.StatusBadRequest, "Selected variant is currently unavailable")
	ErrInsufficientStock    = NewDomainError(ErrCodeInsufficientStock, http.StatusConflict, "Insufficient stock")
	ErrCouponExpired        = ValidationError("Coupon has expired or is not yet valid")
	ErrCouponNotApplicable  = ValidationError("Coupon is not applicable to this order")
	ErrOrderAlreadyAssigned = ConflictError("This order is already assigned")
	ErrOrderNotReady        = InvalidStateError("This order is not available for pickup")
	ErrNotAssignedPartner   = ForbiddenError("This order is not assigned to you")
	ErrPartnerNotVerified   = ForbiddenError("Delivery partner account is not verified")
	ErrCancellationClosed   = InvalidStateError("Order cannot be cancelled at this stage")
)
