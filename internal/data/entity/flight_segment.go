package entity

import (
	"time"

	"github.com/google/uuid"
)

// FlightSegment is one flown leg of a FlightOrder, flattened out of the
// provider's nested itinerary structure so the rest of the system never
// touches provider JSON.
type FlightSegment struct {
	BaseSimple
	FlightOrderID      uuid.UUID `db:"flight_order_id"`
	SegmentNumber      int       `db:"segment_number"`
	DepartureAirport   string    `db:"departure_airport"`
	DepartureTerminal  *string   `db:"departure_terminal"`
	DepartureTime      time.Time `db:"departure_time"`
	ArrivalAirport     string    `db:"arrival_airport"`
	ArrivalTerminal    *string   `db:"arrival_terminal"`
	ArrivalTime        time.Time `db:"arrival_time"`
	MarketingCarrier   string    `db:"marketing_carrier"`
	MarketingFlightNo  string    `db:"marketing_flight_number"`
	OperatingCarrier   *string   `db:"operating_carrier"`
	OperatingFlightNo  *string   `db:"operating_flight_number"`
	CabinClass         string    `db:"cabin_class"`
	CheckedBagsAllowed int       `db:"checked_bags_allowed"`
	DurationMinutes    int       `db:"duration_minutes"`
}
