package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrInvalidPackage unknown premium package name
	ErrInvalidPackage = errors.New("invalid premium package")

	// ErrNoActiveSubscription the owner has no unexpired success order
	ErrNoActiveSubscription = errors.New("no active subscription")
)

// PaymentError carries the gateway-facing numeric response code next to
// the internal cause, so callback failures can be logged and answered
// with the code the gateway retry logic expects.
type PaymentError struct {
	Code        string
	Message     string
	OrderID     string
	OriginalErr error
}

// Error implements the error interface
func (e *PaymentError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("payment error [%s]: %s: %v (order_id: %s)", e.Code, e.Message, e.OriginalErr, e.OrderID)
	}
	return fmt.Sprintf("payment error [%s]: %s (order_id: %s)", e.Code, e.Message, e.OrderID)
}

// Unwrap returns the original error
func (e *PaymentError) Unwrap() error {
	return e.OriginalErr
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message, orderID string, err error) *PaymentError {
	return &PaymentError{
		Code:        code,
		Message:     message,
		OrderID:     orderID,
		OriginalErr: err,
	}
}
