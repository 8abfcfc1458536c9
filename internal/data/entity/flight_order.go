package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusTicketed  OrderStatus = "ticketed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusFailed    OrderStatus = "failed"
)

type TicketingStatus string

const (
	TicketingNotIssued TicketingStatus = "not_issued"
	TicketingIssued    TicketingStatus = "issued"
	TicketingVoided    TicketingStatus = "voided"
	TicketingRefunded  TicketingStatus = "refunded"
)

// FlightOrder is the durable record of an upstream booking.
// UpstreamOfferID lives in its own indexed column so the duplicate-order
// check never has to dig into the offer snapshot JSON.
type FlightOrder struct {
	Base
	OrderNumber       string          `db:"order_number"`
	UserID            uuid.UUID       `db:"user_id"`
	BookingID         *uuid.UUID      `db:"booking_id"`
	Provider          string          `db:"provider"`
	ProviderOrderID   string          `db:"provider_order_id"`
	UpstreamOfferID   string          `db:"upstream_offer_id"`
	PNR               string          `db:"pnr"`
	Status            OrderStatus     `db:"status"`
	TicketingStatus   TicketingStatus `db:"ticketing_status"`
	TotalAmount       decimal.Decimal `db:"total_amount"`
	BaseAmount        decimal.Decimal `db:"base_amount"`
	TaxAmount         decimal.Decimal `db:"tax_amount"`
	Currency          string          `db:"currency"`
	NumberOfTravelers int             `db:"number_of_travelers"`
	ContactEmail      string          `db:"contact_email"`
	ContactPhone      string          `db:"contact_phone"`
	ValidatingAirline *string         `db:"validating_airline"`
	OfferSnapshot     json.RawMessage `db:"offer_snapshot"`
	ScheduleChanged   bool            `db:"schedule_changed"`
	TicketedAt        *time.Time      `db:"ticketed_at"`
	CancelledAt       *time.Time      `db:"cancelled_at"`
	ExpiresAt         *time.Time      `db:"expires_at"`
}

// IsActive reports whether the order still occupies its (user, offer) slot
// for duplicate detection.
func (o *FlightOrder) IsActive() bool {
	return o.Status != OrderStatusCancelled && o.Status != OrderStatusFailed
}
