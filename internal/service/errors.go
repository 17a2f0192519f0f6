package service

import (
	"errors"
	"fmt"
)

// Domain errors. Validation errors are surfaced to the operator with no side
// effect; persistence failures during checkout are routed to the offline
// retry queue instead (see CheckoutService).
var (
	ErrSessionAlreadyOpen   = errors.New("a cash session is already open on this register")
	ErrNoOpenSession        = errors.New("no cash session is open")
	ErrInvalidAmount        = errors.New("amount must be a non-negative number")
	ErrUnauthorized         = errors.New("authorization failed: elevated credentials required")
	ErrMissingSKU           = errors.New("line item product has no stock-keeping identifier")
	ErrInsufficientPayment  = errors.New("received amount is less than the total due")
	ErrSaleAlreadyCancelled = errors.New("the sale is already cancelled")
	ErrCouponInvalid        = errors.New("coupon is invalid, expired or exhausted")
)

// InsufficientStockError is returned when the atomic stock decrement detects
// a deficit at commit time. It is fatal to that checkout attempt — there is
// no partial fulfilment.
type InsufficientStockError struct {
	SKU       string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %d, available %d", e.SKU, e.Required, e.Available)
}
