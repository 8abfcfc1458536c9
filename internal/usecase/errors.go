package usecase

import (
	"errors"
	"fmt"

	"travel-booking/internal/data/entity"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrOfferExpired       = errors.New("offer has expired, please search again")
	ErrPaymentFailed      = errors.New("payment was not approved")
	ErrAlreadyCancelled   = errors.New("order is already cancelled")
	ErrOrderNotActionable = errors.New("order is not in a state that allows this action")
)

// ValidationError carries per-field messages up to the handler layer
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// DuplicateOrderError is returned when the same user re-submits an offer
// that already has an active order. The existing order rides along so the
// handler can return it instead of an error page.
type DuplicateOrderError struct {
	Order *entity.FlightOrder
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("an active order already exists for this offer: %s", e.Order.OrderNumber)
}

// TimeoutPendingError signals that the provider call outlived its deadline
// with the outcome unknown. The order row is kept in pending; the client
// must poll, never blindly retry.
type TimeoutPendingError struct {
	OrderNumber string
}

func (e *TimeoutPendingError) Error() string {
	return fmt.Sprintf("order %s is still being processed, check its status before retrying", e.OrderNumber)
}

// PostPaymentBookingError is the pay-then-book failure shape: money was
// taken, booking failed, and the compensating refund either went through
// or needs an operator.
type PostPaymentBookingError struct {
	PaymentID  string
	Refunded   bool
	BookingErr error
	RefundErr  error
}

func (e *PostPaymentBookingError) Error() string {
	if e.Refunded {
		return fmt.Sprintf("booking failed after payment, the charge was refunded: %v", e.BookingErr)
	}
	return fmt.Sprintf("booking failed after payment and the automatic refund also failed, the payment is flagged for manual review: %v", e.BookingErr)
}

func (e *PostPaymentBookingError) Unwrap() error {
	return e.BookingErr
}
