package request

// BookAndPayRequest books the flight first and then collects payment for
// the created order (book-then-pay flow).
type BookAndPayRequest struct {
	CreateFlightOrderRequest
	ReturnURL string `json:"return_url,omitempty" validate:"omitempty,url"`
}

// PayThenBookRequest charges the customer up front; the booking is only
// created after the gateway confirms the payment on the callback.
type PayThenBookRequest struct {
	CreateFlightOrderRequest
	ReturnURL string `json:"return_url,omitempty" validate:"omitempty,url"`
}

// PayTabsCallbackRequest is what the gateway posts back after the hosted
// page completes. Only the transaction reference is trusted; everything
// else is re-verified against the gateway.
type PayTabsCallbackRequest struct {
	TranRef string `json:"tran_ref" validate:"required"`
	CartID  string `json:"cart_id,omitempty"`
}
