package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus lifecycle state of a premium order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusSuccess   OrderStatus = "success"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether the status can no longer be changed by a
// gateway callback. Cancellation of a success order is bookkeeping,
// not a callback transition.
func (s OrderStatus) Terminal() bool {
	return s != OrderStatusPending
}

// Order represents a single premium subscription purchase attempt.
// Its ID doubles as the gateway transaction reference (vnp_TxnRef).
type Order struct {
	ID           uuid.UUID   `json:"id"`
	OwnerID      string      `json:"owner_id"`
	Package      string      `json:"package"`
	Price        int64       `json:"price"`
	Status       OrderStatus `json:"status"`
	ValidFrom    *time.Time  `json:"valid_from,omitempty"`
	ValidTo      *time.Time  `json:"valid_to,omitempty"`
	RefundAmount *int64      `json:"refund_amount,omitempty"`
	CancelReason string      `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Active reports whether the order grants an entitlement at the given time
func (o Order) Active(now time.Time) bool {
	return o.Status == OrderStatusSuccess && o.ValidTo != nil && o.ValidTo.After(now)
}

// OrderUpdate describes a conditional status transition. Nil pointer
// fields leave the stored value untouched.
type OrderUpdate struct {
	Status       OrderStatus
	ValidFrom    *time.Time
	ValidTo      *time.Time
	RefundAmount *int64
	CancelReason string
}

// PaymentRequest is the client payload for creating a payment order
type PaymentRequest struct {
	Package string `json:"package" binding:"required"`
	Locale  string `json:"locale,omitempty"`
}

// CancelRequest is the client payload for cancelling a subscription
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}
