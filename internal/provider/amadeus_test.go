package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"travel-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const amadeusOfferJSON = `{
	"id": "1",
	"type": "flight-offer",
	"source": "GDS",
	"validatingAirlineCodes": ["EK"],
	"itineraries": [{
		"duration": "PT14H30M",
		"segments": [{
			"id": "3",
			"departure": {"iataCode": "JFK", "terminal": "4", "at": "2026-12-15T10:00:00"},
			"arrival": {"iataCode": "DXB", "terminal": "3", "at": "2026-12-16T08:30:00"},
			"carrierCode": "EK",
			"number": "204",
			"operating": {"carrierCode": "EK"},
			"duration": "PT14H30M"
		}]
	}],
	"price": {"currency": "AED", "total": "3650.00", "base": "3100.00", "grandTotal": "3650.00"},
	"travelerPricings": [{
		"travelerId": "1",
		"travelerType": "ADULT",
		"fareDetailsBySegment": [{
			"segmentId": "3",
			"cabin": "ECONOMY",
			"includedCheckedBags": {"quantity": 2}
		}]
	}]
}`

func newAmadeusTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *AmadeusClient) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/security/oauth2/token" {
			assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token": "test-token", "expires_in": 1799}`))
			return
		}
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewAmadeusClient(utils.AmadeusConfig{
		BaseURL:      server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	}, zap.NewNop())

	return server, client
}

func TestAmadeusSearchNormalizesOffers(t *testing.T) {
	_, client := newAmadeusTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shopping/flight-offers", r.URL.Path)
		assert.Equal(t, "JFK", r.URL.Query().Get("originLocationCode"))
		assert.Equal(t, "DXB", r.URL.Query().Get("destinationLocationCode"))
		assert.Equal(t, "2", r.URL.Query().Get("adults"))
		_, _ = w.Write([]byte(`{"data": [` + amadeusOfferJSON + `]}`))
	})

	offers, err := client.Search(context.Background(), SearchCriteria{
		Origin:        "JFK",
		Destination:   "DXB",
		DepartureDate: "2026-12-15",
		Adults:        2,
	})
	require.NoError(t, err)
	require.Len(t, offers, 1)

	offer := offers[0]
	assert.Equal(t, ProviderAmadeus, offer.Provider)
	assert.Equal(t, "EK", offer.ValidatingAirline)
	assert.True(t, offer.Price.Total.Equal(decimal.RequireFromString("3650.00")))
	assert.True(t, offer.Price.Base.Equal(decimal.RequireFromString("3100.00")))
	assert.True(t, offer.Price.Tax.Equal(decimal.RequireFromString("550.00")))
	assert.True(t, offer.Price.Consistent())
	assert.Nil(t, offer.ExpiresAt, "GDS offers carry no expiry")

	require.Len(t, offer.Itineraries, 1)
	assert.Equal(t, 870, offer.Itineraries[0].DurationMinutes)
	require.Len(t, offer.Itineraries[0].Segments, 1)

	seg := offer.Itineraries[0].Segments[0]
	assert.Equal(t, "JFK", seg.Departure.IATACode)
	assert.Equal(t, "4", seg.Departure.Terminal)
	assert.Equal(t, "DXB", seg.Arrival.IATACode)
	assert.Equal(t, "EK", seg.CarrierCode)
	assert.Equal(t, "204", seg.FlightNumber)
	assert.Equal(t, "ECONOMY", seg.CabinClass)
	assert.Equal(t, 2, seg.CheckedBags)

	require.Len(t, offer.Passengers, 1)
	assert.Equal(t, "1", offer.Passengers[0].ID)
	assert.Equal(t, "adult", offer.Passengers[0].Type)
}

func TestAmadeusTokenIsCached(t *testing.T) {
	tokenCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/security/oauth2/token" {
			tokenCalls++
			_, _ = w.Write([]byte(`{"access_token": "tok", "expires_in": 1799}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewAmadeusClient(utils.AmadeusConfig{BaseURL: server.URL}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := client.SearchLocations(context.Background(), "dub")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, tokenCalls)
}

func TestAmadeusCreateOrderPayload(t *testing.T) {
	var captured map[string]any
	_, client := newAmadeusTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/booking/flight-orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"data": {
			"id": "eJzTd9f3",
			"associatedRecords": [{"reference": "ABC123"}],
			"flightOffers": [` + amadeusOfferJSON + `]
		}}`))
	})

	offer := FlightOffer{ID: "1", Provider: ProviderAmadeus, Raw: json.RawMessage(amadeusOfferJSON)}
	order, err := client.CreateOrder(context.Background(), OrderInput{
		Offer: offer,
		Travelers: []Traveler{{
			FirstName:        "john",
			LastName:         "doe",
			Gender:           "male",
			DateOfBirth:      "1990-01-15",
			PhoneCountryCode: "+971",
			PhoneNumber:      "50 123 4567",
			OfferPassengerID: "1",
			Documents: []TravelerDocument{{
				Type:            "passport",
				Number:          "N1234567",
				ExpiryDate:      "2030-06-01",
				IssuanceCountry: "US",
				Nationality:     "US",
			}},
		}},
		Contacts: Contacts{Email: "john@example.com", Phone: "+971501234567"},
	})
	require.NoError(t, err)

	assert.Equal(t, "eJzTd9f3", order.ID)
	assert.Equal(t, "ABC123", order.PNR)
	assert.True(t, order.Price.Total.Equal(decimal.RequireFromString("3650.00")))

	data := captured["data"].(map[string]any)
	travelers := data["travelers"].([]any)
	require.Len(t, travelers, 1)

	traveler := travelers[0].(map[string]any)
	assert.Equal(t, "1", traveler["id"])
	assert.Equal(t, "MALE", traveler["gender"])

	name := traveler["name"].(map[string]any)
	assert.Equal(t, "JOHN", name["firstName"])
	assert.Equal(t, "DOE", name["lastName"])

	contact := traveler["contact"].(map[string]any)
	phones := contact["phones"].([]any)
	phone := phones[0].(map[string]any)
	assert.Equal(t, "971", phone["countryCallingCode"])
	assert.Equal(t, "501234567", phone["number"])

	documents := traveler["documents"].([]any)
	document := documents[0].(map[string]any)
	assert.Equal(t, "PASSPORT", document["documentType"])
	assert.Equal(t, true, document["holder"])
}

func TestAmadeusErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{"validation failure", 400, `{"errors": [{"status": 400, "title": "INVALID DATA"}]}`, ErrInvalidRequest},
		{"rate limited", 429, `{"errors": [{"status": 429, "title": "QUOTA EXCEEDED"}]}`, ErrRateLimited},
		{"upstream down", 500, `{"errors": [{"status": 500, "title": "SYSTEM ERROR"}]}`, ErrUpstreamUnavailable},
		{"stale offer", 422, `{"errors": [{"status": 422, "detail": "fare no longer available"}]}`, ErrOfferExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newAmadeusTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Search(context.Background(), SearchCriteria{
				Origin: "JFK", Destination: "DXB", DepartureDate: "2026-12-15", Adults: 1,
			})
			require.Error(t, err)

			var provErr *Error
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, tt.want, provErr.Kind)
			assert.Equal(t, ProviderAmadeus, provErr.Provider)
		})
	}
}
