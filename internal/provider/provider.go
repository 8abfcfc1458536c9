package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider identifies which upstream a piece of data came from. The tag is
// assigned once at normalization time; nothing downstream ever sniffs payload
// shape to guess the source.
type Provider string

const (
	ProviderAmadeus Provider = "amadeus"
	ProviderDuffel  Provider = "duffel"
)

func ParseProvider(name string) (Provider, error) {
	switch Provider(name) {
	case ProviderAmadeus:
		return ProviderAmadeus, nil
	case ProviderDuffel:
		return ProviderDuffel, nil
	default:
		return "", fmt.Errorf("unknown flight provider: %s", name)
	}
}

type ErrorKind string

const (
	ErrInvalidRequest      ErrorKind = "invalid_request"
	ErrOfferExpired        ErrorKind = "offer_expired"
	ErrRateLimited         ErrorKind = "rate_limited"
	ErrUpstreamUnavailable ErrorKind = "upstream_unavailable"
)

// Error is the single error shape all upstream 4xx/5xx responses map to.
// Clients never retry; retry policy belongs to the caller.
type Error struct {
	Provider Provider
	Kind     ErrorKind
	Detail   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider error (%s): %s", e.Provider, e.Kind, e.Detail)
}

type SearchCriteria struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Children      int
	Infants       int
	TravelClass   string
	NonStop       bool
	CurrencyCode  string
	MaxResults    int
}

// TravelerDocument is one identity document submitted for booking
type TravelerDocument struct {
	Type            string `json:"documentType"`
	Number          string `json:"number"`
	ExpiryDate      string `json:"expiryDate"`
	IssuanceCountry string `json:"issuanceCountry"`
	Nationality     string `json:"nationality"`
}

// Traveler is the provider-facing passenger payload. OfferPassengerID carries
// the provider-scoped passenger id from the offer; Duffel rejects orders whose
// passenger ids do not match the offer, so the id travels as an explicit field
// instead of being re-derived by array position.
type Traveler struct {
	FirstName        string             `json:"firstName"`
	LastName         string             `json:"lastName"`
	Gender           string             `json:"gender"`
	DateOfBirth      string             `json:"dateOfBirth"`
	Email            string             `json:"email,omitempty"`
	PhoneCountryCode string             `json:"phoneCountryCode,omitempty"`
	PhoneNumber      string             `json:"phoneNumber,omitempty"`
	PassengerType    string             `json:"passengerType,omitempty"`
	OfferPassengerID string             `json:"offerPassengerId,omitempty"`
	Documents        []TravelerDocument `json:"documents"`
}

type Contacts struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type OrderInput struct {
	Offer     FlightOffer
	Travelers []Traveler
	Contacts  Contacts
	Remarks   string
}

type CancellationResult struct {
	ProviderOrderID string          `json:"provider_order_id"`
	CancellationID  string          `json:"cancellation_id,omitempty"`
	RefundAmount    string          `json:"refund_amount,omitempty"`
	RefundCurrency  string          `json:"refund_currency,omitempty"`
	Raw             json.RawMessage `json:"-"`
}

type Place struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Client is the contract every upstream flight supplier implements.
// Implementations only shape requests and responses; no business logic.
type Client interface {
	Name() Provider
	Search(ctx context.Context, criteria SearchCriteria) ([]FlightOffer, error)
	Reprice(ctx context.Context, offer FlightOffer) (*FlightOffer, error)
	CreateOrder(ctx context.Context, input OrderInput) (*Order, error)
	GetOrder(ctx context.Context, providerOrderID string) (*Order, error)
	CancelOrder(ctx context.Context, providerOrderID string) (*CancellationResult, error)
	SearchLocations(ctx context.Context, keyword string) ([]Place, error)
	GetSeatMaps(ctx context.Context, offer FlightOffer) (json.RawMessage, error)
}
