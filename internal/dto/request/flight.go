package request

import "travel-booking/internal/provider"

type SearchFlightsRequest struct {
	Origin        string `json:"origin" validate:"required,len=3,alpha"`
	Destination   string `json:"destination" validate:"required,len=3,alpha"`
	DepartureDate string `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ReturnDate    string `json:"return_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Adults        int    `json:"adults" validate:"required,min=1,max=9"`
	Children      int    `json:"children" validate:"min=0,max=9"`
	Infants       int    `json:"infants" validate:"min=0,max=9"`
	TravelClass   string `json:"travel_class,omitempty" validate:"omitempty,oneof=economy premium_economy business first ECONOMY PREMIUM_ECONOMY BUSINESS FIRST"`
	NonStop       bool   `json:"non_stop,omitempty"`
	CurrencyCode  string `json:"currency_code,omitempty" validate:"omitempty,len=3,alpha"`
	Provider      string `json:"provider,omitempty" validate:"omitempty,oneof=amadeus duffel all"`
	MaxResults    int    `json:"max_results,omitempty" validate:"omitempty,min=1,max=250"`
}

// ConfirmPriceRequest re-prices an offer before the user commits. The offer
// is echoed back whole because providers need their own original payload.
type ConfirmPriceRequest struct {
	Offer provider.FlightOffer `json:"offer" validate:"required"`
}

type TravelerRequest struct {
	FirstName        string                    `json:"first_name" validate:"required,min=1,max=60"`
	LastName         string                    `json:"last_name" validate:"required,min=1,max=60"`
	Gender           string                    `json:"gender" validate:"required,oneof=MALE FEMALE male female"`
	DateOfBirth      string                    `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Email            string                    `json:"email,omitempty" validate:"omitempty,email"`
	PhoneCountryCode string                    `json:"phone_country_code,omitempty"`
	PhoneNumber      string                    `json:"phone_number,omitempty"`
	Nationality      string                    `json:"nationality,omitempty" validate:"omitempty,len=2,alpha"`
	PassengerType    string                    `json:"passenger_type,omitempty" validate:"omitempty,oneof=adult child infant"`
	OfferPassengerID string                    `json:"offer_passenger_id,omitempty"`
	Documents        []TravelerDocumentRequest `json:"documents" validate:"required,min=1,dive"`
}

type TravelerDocumentRequest struct {
	Type            string `json:"type" validate:"required,oneof=passport national_id PASSPORT NATIONAL_ID"`
	Number          string `json:"number" validate:"required"`
	ExpiryDate      string `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	IssuanceCountry string `json:"issuance_country" validate:"required,len=2,alpha"`
	Nationality     string `json:"nationality,omitempty" validate:"omitempty,len=2,alpha"`
}

type ContactsRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=8,max=20"`
}

type CreateFlightOrderRequest struct {
	Offer     provider.FlightOffer `json:"offer" validate:"required"`
	Travelers []TravelerRequest    `json:"travelers" validate:"required,min=1,max=9,dive"`
	Contacts  ContactsRequest      `json:"contacts" validate:"required"`
	Remarks   string               `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

type SeatMapsRequest struct {
	Offer provider.FlightOffer `json:"offer" validate:"required"`
}
