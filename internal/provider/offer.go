package provider

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// baseFareRatio approximates the base fare when the upstream omits it.
// Placeholder heuristic, not a financial contract; the real tax split policy
// is still to be confirmed with accounting.
var baseFareRatio = decimal.NewFromFloat(0.85)

type Price struct {
	Currency string          `json:"currency"`
	Base     decimal.Decimal `json:"base"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Consistent reports whether total = base + tax within one minor currency unit
func (p Price) Consistent() bool {
	diff := p.Total.Sub(p.Base.Add(p.Tax)).Abs()
	return diff.LessThanOrEqual(decimal.New(1, -2))
}

// splitPrice fills base and tax from a total when the upstream provides only
// some of the three amounts.
func splitPrice(currency string, total, base, tax decimal.Decimal, hasBase, hasTax bool) Price {
	switch {
	case hasBase && hasTax:
	case hasBase:
		tax = total.Sub(base)
	case hasTax:
		base = total.Sub(tax)
	default:
		base = total.Mul(baseFareRatio).Round(2)
		tax = total.Sub(base)
	}
	return Price{Currency: currency, Base: base, Tax: tax, Total: total}
}

type SegmentPoint struct {
	IATACode string    `json:"iataCode"`
	Terminal string    `json:"terminal,omitempty"`
	City     string    `json:"city,omitempty"`
	At       time.Time `json:"at"`
}

type Segment struct {
	ID               string       `json:"id,omitempty"`
	Departure        SegmentPoint `json:"departure"`
	Arrival          SegmentPoint `json:"arrival"`
	CarrierCode      string       `json:"carrierCode"`
	CarrierName      string       `json:"carrierName,omitempty"`
	FlightNumber     string       `json:"flightNumber"`
	OperatingCarrier string       `json:"operatingCarrier,omitempty"`
	CabinClass       string       `json:"cabinClass,omitempty"`
	CheckedBags      int          `json:"checkedBags,omitempty"`
	DurationMinutes  int          `json:"durationMinutes"`
}

type Itinerary struct {
	DurationMinutes int       `json:"durationMinutes"`
	Segments        []Segment `json:"segments"`
}

// OfferPassenger is a provider-scoped passenger slot on an offer. IDs must be
// replayed verbatim when the order is submitted.
type OfferPassenger struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// FlightOffer is the internal normalized offer shape. Raw keeps the original
// provider payload because reprice and order creation must re-submit
// provider-native data, not this view.
type FlightOffer struct {
	ID                string           `json:"id"`
	Provider          Provider         `json:"provider"`
	Price             Price            `json:"price"`
	Itineraries       []Itinerary      `json:"itineraries"`
	Passengers        []OfferPassenger `json:"passengers,omitempty"`
	ValidatingAirline string           `json:"validatingAirline,omitempty"`
	ExpiresAt         *time.Time       `json:"expiresAt,omitempty"`
	Raw               json.RawMessage  `json:"raw"`
}

// Expired reports whether the offer's validity window has passed.
// Offers without an expiry never expire locally.
func (o FlightOffer) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}

// Order is the internal normalized order shape
type Order struct {
	ID          string          `json:"id"`
	Provider    Provider        `json:"provider"`
	PNR         string          `json:"pnr"`
	Price       Price           `json:"price"`
	Itineraries []Itinerary     `json:"itineraries"`
	CreatedAt   time.Time       `json:"createdAt"`
	Raw         json.RawMessage `json:"raw"`
}

// parseISODuration converts an ISO-8601 duration like "PT14H30M" to minutes.
// Returns 0 for anything it cannot read.
func parseISODuration(s string) int {
	s = strings.TrimPrefix(strings.ToUpper(s), "P")
	idx := strings.Index(s, "T")

	minutes := 0
	if idx >= 0 {
		timePart := s[idx+1:]
		num := ""
		for _, r := range timePart {
			switch {
			case r >= '0' && r <= '9' || r == '.':
				num += string(r)
			case r == 'H':
				if h, err := strconv.Atoi(num); err == nil {
					minutes += h * 60
				}
				num = ""
			case r == 'M':
				if m, err := strconv.Atoi(num); err == nil {
					minutes += m
				}
				num = ""
			default:
				num = ""
			}
		}
		s = s[:idx]
	}

	// Day component before T
	if dIdx := strings.Index(s, "D"); dIdx > 0 {
		if d, err := strconv.Atoi(s[:dIdx]); err == nil {
			minutes += d * 24 * 60
		}
	}

	return minutes
}

// parseAmount reads a decimal money string, returning ok=false when absent
func parseAmount(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
