package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

type BookingPaymentStatus string

const (
	BookingPaymentUnpaid   BookingPaymentStatus = "unpaid"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

type BookingType string

const (
	BookingTypeFlight BookingType = "flight"
)

// Booking is the commerce-level wrapper around a bookable product.
// For flights ReferenceID points at the FlightOrder row.
type Booking struct {
	Base
	BookingNumber  string               `db:"booking_number"`
	UserID         uuid.UUID            `db:"user_id"`
	BookingType    BookingType          `db:"booking_type"`
	ReferenceID    *uuid.UUID           `db:"reference_id"`
	Status         BookingStatus        `db:"status"`
	PaymentStatus  BookingPaymentStatus `db:"payment_status"`
	TravelDate     time.Time            `db:"travel_date"`
	NumberOfPeople int                  `db:"number_of_people"`
	TotalAmount    decimal.Decimal      `db:"total_amount"`
	Currency       string               `db:"currency"`
	ContactName    string               `db:"contact_name"`
	ContactEmail   string               `db:"contact_email"`
	ContactPhone   string               `db:"contact_phone"`
	Notes          *string              `db:"notes"`
	ConfirmedAt    *time.Time           `db:"confirmed_at"`
	CancelledAt    *time.Time           `db:"cancelled_at"`
}
