package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefundPending     PaymentStatus = "refund_pending"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	// Set when an automatic compensating refund itself failed and an
	// operator has to settle the money by hand.
	PaymentStatusManualReview PaymentStatus = "manual_review"
)

// Payment is one gateway transaction attempt. BookingID is nullable: in the
// pay-then-book flow the payment is created before any booking exists and the
// pending offer/traveler payload rides along in Metadata.
type Payment struct {
	Base
	UserID         uuid.UUID       `db:"user_id"`
	BookingID      *uuid.UUID      `db:"booking_id"`
	TransactionID  string          `db:"transaction_id"`
	Amount         decimal.Decimal `db:"amount"`
	Currency       string          `db:"currency"`
	PaymentMethod  string          `db:"payment_method"`
	PaymentGateway string          `db:"payment_gateway"`
	Status         PaymentStatus   `db:"status"`
	Metadata       json.RawMessage `db:"metadata"`
	PaidAt         *time.Time      `db:"paid_at"`
	RefundedAt     *time.Time      `db:"refunded_at"`
}
