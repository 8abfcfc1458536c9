package response

import (
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/provider"

	"github.com/shopspring/decimal"
)

type SearchFlightsResponse struct {
	Offers []provider.FlightOffer `json:"offers"`
	Count  int                    `json:"count"`
}

// ConfirmPriceResponse carries the refreshed offer plus whether the total
// moved since the customer first saw it.
type ConfirmPriceResponse struct {
	Offer        provider.FlightOffer `json:"offer"`
	PriceChanged bool                 `json:"price_changed"`
	OldTotal     decimal.Decimal      `json:"old_total"`
	NewTotal     decimal.Decimal      `json:"new_total"`
}

type FlightSegmentResponse struct {
	SegmentNumber      int       `json:"segment_number"`
	DepartureAirport   string    `json:"departure_airport"`
	DepartureTerminal  *string   `json:"departure_terminal,omitempty"`
	DepartureTime      time.Time `json:"departure_time"`
	ArrivalAirport     string    `json:"arrival_airport"`
	ArrivalTerminal    *string   `json:"arrival_terminal,omitempty"`
	ArrivalTime        time.Time `json:"arrival_time"`
	MarketingCarrier   string    `json:"marketing_carrier"`
	MarketingFlightNo  string    `json:"marketing_flight_number"`
	OperatingCarrier   *string   `json:"operating_carrier,omitempty"`
	CabinClass         string    `json:"cabin_class"`
	CheckedBagsAllowed int       `json:"checked_bags_allowed"`
	DurationMinutes    int       `json:"duration_minutes"`
}

type FlightOrderResponse struct {
	ID                string                  `json:"id"`
	OrderNumber       string                  `json:"order_number"`
	BookingID         *string                 `json:"booking_id,omitempty"`
	Provider          string                  `json:"provider"`
	PNR               string                  `json:"pnr,omitempty"`
	Status            entity.OrderStatus      `json:"status"`
	TicketingStatus   entity.TicketingStatus  `json:"ticketing_status"`
	TotalAmount       decimal.Decimal         `json:"total_amount"`
	BaseAmount        decimal.Decimal         `json:"base_amount"`
	TaxAmount         decimal.Decimal         `json:"tax_amount"`
	Currency          string                  `json:"currency"`
	NumberOfTravelers int                     `json:"number_of_travelers"`
	ValidatingAirline *string                 `json:"validating_airline,omitempty"`
	ScheduleChanged   bool                    `json:"schedule_changed"`
	Segments          []FlightSegmentResponse `json:"segments,omitempty"`
	TicketedAt        *time.Time              `json:"ticketed_at,omitempty"`
	CancelledAt       *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

// CreateOrderResponse wraps the order plus a Duplicate marker: when the
// same user re-submits the same offer the existing order comes back with
// Duplicate set instead of a second booking being made.
type CreateOrderResponse struct {
	Order     FlightOrderResponse `json:"order"`
	Duplicate bool                `json:"duplicate"`
}

type CancellationResponse struct {
	OrderNumber    string             `json:"order_number"`
	Status         entity.OrderStatus `json:"status"`
	CancellationID string             `json:"cancellation_id,omitempty"`
	RefundAmount   string             `json:"refund_amount,omitempty"`
	RefundCurrency string             `json:"refund_currency,omitempty"`
}

// Helper converters
func FlightSegmentToResponse(segment *entity.FlightSegment) FlightSegmentResponse {
	return FlightSegmentResponse{
		SegmentNumber:      segment.SegmentNumber,
		DepartureAirport:   segment.DepartureAirport,
		DepartureTerminal:  segment.DepartureTerminal,
		DepartureTime:      segment.DepartureTime,
		ArrivalAirport:     segment.ArrivalAirport,
		ArrivalTerminal:    segment.ArrivalTerminal,
		ArrivalTime:        segment.ArrivalTime,
		MarketingCarrier:   segment.MarketingCarrier,
		MarketingFlightNo:  segment.MarketingFlightNo,
		OperatingCarrier:   segment.OperatingCarrier,
		CabinClass:         segment.CabinClass,
		CheckedBagsAllowed: segment.CheckedBagsAllowed,
		DurationMinutes:    segment.DurationMinutes,
	}
}

func FlightOrderToResponse(order *entity.FlightOrder, segments []*entity.FlightSegment) FlightOrderResponse {
	resp := FlightOrderResponse{
		ID:                order.ID.String(),
		OrderNumber:       order.OrderNumber,
		Provider:          order.Provider,
		PNR:               order.PNR,
		Status:            order.Status,
		TicketingStatus:   order.TicketingStatus,
		TotalAmount:       order.TotalAmount,
		BaseAmount:        order.BaseAmount,
		TaxAmount:         order.TaxAmount,
		Currency:          order.Currency,
		NumberOfTravelers: order.NumberOfTravelers,
		ValidatingAirline: order.ValidatingAirline,
		ScheduleChanged:   order.ScheduleChanged,
		TicketedAt:        order.TicketedAt,
		CancelledAt:       order.CancelledAt,
		CreatedAt:         order.CreatedAt,
	}
	if order.BookingID != nil {
		id := order.BookingID.String()
		resp.BookingID = &id
	}
	for _, segment := range segments {
		resp.Segments = append(resp.Segments, FlightSegmentToResponse(segment))
	}
	return resp
}
