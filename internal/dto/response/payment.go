package response

import (
	"time"

	"travel-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

// ChargePageResponse points the client at the gateway's hosted payment page
type ChargePageResponse struct {
	PaymentID      string `json:"payment_id"`
	TransactionRef string `json:"transaction_ref"`
	RedirectURL    string `json:"redirect_url"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	BookingID     *string              `json:"booking_id,omitempty"`
	TransactionID string               `json:"transaction_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	Gateway       string               `json:"gateway"`
	Status        entity.PaymentStatus `json:"status"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	RefundedAt    *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// PaymentCompletionResponse is the callback outcome: the settled payment
// plus the order it produced, when booking succeeded.
type PaymentCompletionResponse struct {
	Payment PaymentResponse      `json:"payment"`
	Order   *FlightOrderResponse `json:"order,omitempty"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:            payment.ID.String(),
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Gateway:       payment.PaymentGateway,
		Status:        payment.Status,
		PaidAt:        payment.PaidAt,
		RefundedAt:    payment.RefundedAt,
		CreatedAt:     payment.CreatedAt,
	}
	if payment.BookingID != nil {
		id := payment.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}
