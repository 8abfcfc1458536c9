package entity

import (
	"time"

	"github.com/google/uuid"
)

type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerInfant PassengerType = "infant"
)

// Traveler is one passenger on one booking, normalized out of the
// provider payload at order-creation time.
type Traveler struct {
	Base
	BookingID           uuid.UUID     `db:"booking_id"`
	FirstName           string        `db:"first_name"`
	LastName            string        `db:"last_name"`
	Title               string        `db:"title"`
	Gender              string        `db:"gender"`
	DateOfBirth         time.Time     `db:"date_of_birth"`
	Email               *string       `db:"email"`
	PhoneCountryCode    *string       `db:"phone_country_code"`
	PhoneNumber         *string       `db:"phone_number"`
	Nationality         *string       `db:"nationality"`
	PassengerType       PassengerType `db:"passenger_type"`
	ProviderPassengerID *string       `db:"provider_passenger_id"`
}

// TravelerDocument is an identity document owned by one traveler
type TravelerDocument struct {
	BaseSimple
	TravelerID     uuid.UUID  `db:"traveler_id"`
	DocumentType   string     `db:"document_type"`
	DocumentNumber string     `db:"document_number"`
	IssuingCountry string     `db:"issuing_country"`
	Nationality    *string    `db:"nationality"`
	IssueDate      *time.Time `db:"issue_date"`
	ExpiryDate     time.Time  `db:"expiry_date"`
}
