package usecase

import (
	"context"
	"testing"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/provider"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *utils.Config {
	return &utils.Config{
		Flights: utils.FlightsConfig{
			DefaultProvider: "duffel",
			OrderTimeout:    30 * time.Second,
			SearchTimeout:   20 * time.Second,
		},
	}
}

func newFlightService(f *serviceFixture) FlightService {
	router := provider.NewRouter(provider.ProviderDuffel, zap.NewNop(), f.client)
	return NewFlightService(f.repo, router, f.notifier, testConfig(), zap.NewNop())
}

func validOffer() provider.FlightOffer {
	departure := time.Date(2026, 10, 12, 8, 30, 0, 0, time.UTC)
	return provider.FlightOffer{
		ID:       "off_0000AUde6KY1SptM6ABSfU",
		Provider: provider.ProviderDuffel,
		Price: provider.Price{
			Currency: "USD",
			Base:     decimal.NewFromFloat(821.00),
			Tax:      decimal.NewFromFloat(173.23),
			Total:    decimal.NewFromFloat(994.23),
		},
		Itineraries: []provider.Itinerary{{
			DurationMinutes: 435,
			Segments: []provider.Segment{{
				Departure:       provider.SegmentPoint{IATACode: "JFK", At: departure},
				Arrival:         provider.SegmentPoint{IATACode: "LHR", At: departure.Add(435 * time.Minute)},
				CarrierCode:     "BA",
				FlightNumber:    "112",
				DurationMinutes: 435,
			}},
		}},
		Passengers: []provider.OfferPassenger{{ID: "pas_0000AUde6Jv8jmUPKzHVfM", Type: "adult"}},
		Raw:        []byte(`{"id":"off_0000AUde6KY1SptM6ABSfU"}`),
	}
}

func validCreateOrderRequest() *request.CreateFlightOrderRequest {
	return &request.CreateFlightOrderRequest{
		Offer: validOffer(),
		Travelers: []request.TravelerRequest{{
			FirstName:        "Amira",
			LastName:         "Haddad",
			Gender:           "female",
			DateOfBirth:      "1992-04-18",
			Email:            "amira@example.com",
			PassengerType:    "adult",
			OfferPassengerID: "pas_0000AUde6Jv8jmUPKzHVfM",
			Documents: []request.TravelerDocumentRequest{{
				Type:            "passport",
				Number:          "N1234567",
				ExpiryDate:      "2030-01-01",
				IssuanceCountry: "JO",
				Nationality:     "JO",
			}},
		}},
		Contacts: request.ContactsRequest{
			Name:  "Amira Haddad",
			Email: "amira@example.com",
			Phone: "+962791234567",
		},
	}
}

func TestCreateOrderValidationFailure(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	req := validCreateOrderRequest()
	req.Travelers = nil

	result, err := service.CreateOrder(context.Background(), uuid.New(), req)

	assert.Nil(t, result)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	// nothing should reach the repositories or the provider
	f.flightOrders.AssertNotCalled(t, "FindActiveByUserAndOffer", mock.Anything, mock.Anything, mock.Anything)
	f.client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderTravelerWithoutDocuments(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	req := validCreateOrderRequest()
	req.Travelers[0].Documents = nil

	result, err := service.CreateOrder(context.Background(), uuid.New(), req)

	assert.Nil(t, result)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	// an undocumented traveler must never be persisted or sent upstream
	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.flightOrders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderExpiredTravelerDocument(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	req := validCreateOrderRequest()
	req.Travelers[0].Documents[0].ExpiryDate = "2024-06-30"

	result, err := service.CreateOrder(context.Background(), uuid.New(), req)

	assert.Nil(t, result)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "travelers[0].documents[0].expiry_date")
	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderRejectsUnknownGender(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	req := validCreateOrderRequest()
	req.Travelers[0].Gender = "x"

	result, err := service.CreateOrder(context.Background(), uuid.New(), req)

	assert.Nil(t, result)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	f.client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderExpiredOffer(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	req := validCreateOrderRequest()
	expired := time.Now().Add(-time.Minute)
	req.Offer.ExpiresAt = &expired

	result, err := service.CreateOrder(context.Background(), uuid.New(), req)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrOfferExpired)
	f.client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderDuplicateBlocked(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	userID := uuid.New()
	req := validCreateOrderRequest()
	existing := &entity.FlightOrder{
		Base:            entity.Base{ID: uuid.New()},
		OrderNumber:     "ORD-FLT-20260901-0001",
		UserID:          userID,
		UpstreamOfferID: req.Offer.ID,
		Status:          entity.OrderStatusConfirmed,
	}
	f.flightOrders.On("FindActiveByUserAndOffer", mock.Anything, userID, req.Offer.ID).Return(existing, nil)

	result, err := service.CreateOrder(context.Background(), userID, req)

	assert.Nil(t, result)
	var dup *DuplicateOrderError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, existing.OrderNumber, dup.Order.OrderNumber)
	// the provider must never see a duplicate submission
	f.client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderSuccess(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	userID := uuid.New()
	req := validCreateOrderRequest()

	f.flightOrders.On("FindActiveByUserAndOffer", mock.Anything, userID, req.Offer.ID).Return(nil, nil)
	f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*entity.Booking")).Return(nil)
	f.bookings.On("Update", mock.Anything, mock.AnythingOfType("*entity.Booking")).Return(nil)
	f.flightOrders.On("Create", mock.Anything, mock.AnythingOfType("*entity.FlightOrder")).Return(nil)
	f.flightOrders.On("Update", mock.Anything, mock.AnythingOfType("*entity.FlightOrder")).Return(nil)
	f.travelers.On("Create", mock.Anything, mock.AnythingOfType("*entity.Traveler")).Return(nil)
	f.travelers.On("CreateDocument", mock.Anything, mock.AnythingOfType("*entity.TravelerDocument")).Return(nil)
	f.segments.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]*entity.FlightSegment")).Return(nil)
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)

	var capturedInput provider.OrderInput
	f.client.On("CreateOrder", mock.Anything, mock.AnythingOfType("provider.OrderInput")).
		Run(func(args mock.Arguments) {
			capturedInput = args.Get(1).(provider.OrderInput)
		}).
		Return(&provider.Order{
			ID:          "ord_0000AVxbCt9bRQpoJgmu8M",
			Provider:    provider.ProviderDuffel,
			PNR:         "RZPNX8",
			Price:       req.Offer.Price,
			Itineraries: req.Offer.Itineraries,
		}, nil)

	result, err := service.CreateOrder(context.Background(), userID, req)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Duplicate)
	assert.Equal(t, "RZPNX8", result.Order.PNR)
	assert.Equal(t, entity.OrderStatusConfirmed, result.Order.Status)
	assert.Len(t, result.Order.Segments, 1)

	// offer passenger id must reach the provider unchanged
	require.Len(t, capturedInput.Travelers, 1)
	assert.Equal(t, "pas_0000AUde6Jv8jmUPKzHVfM", capturedInput.Travelers[0].OfferPassengerID)

	f.flightOrders.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
	f.segments.AssertExpectations(t)
}

func TestCreateOrderTimeoutKeepsPendingRow(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	userID := uuid.New()
	req := validCreateOrderRequest()

	f.flightOrders.On("FindActiveByUserAndOffer", mock.Anything, userID, req.Offer.ID).Return(nil, nil)
	f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*entity.Booking")).Return(nil)
	f.bookings.On("Update", mock.Anything, mock.AnythingOfType("*entity.Booking")).Return(nil)
	f.flightOrders.On("Create", mock.Anything, mock.AnythingOfType("*entity.FlightOrder")).Return(nil)
	f.travelers.On("Create", mock.Anything, mock.AnythingOfType("*entity.Traveler")).Return(nil)
	f.travelers.On("CreateDocument", mock.Anything, mock.AnythingOfType("*entity.TravelerDocument")).Return(nil)
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.client.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	result, err := service.CreateOrder(context.Background(), userID, req)

	assert.Nil(t, result)
	var pending *TimeoutPendingError
	require.ErrorAs(t, err, &pending)
	assert.NotEmpty(t, pending.OrderNumber)

	// the pending row stays as-is: no failed transition, no cancellation
	f.flightOrders.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.audits.AssertExpectations(t)
}

func TestCreateOrderProviderFailureMarksOrderFailed(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	userID := uuid.New()
	req := validCreateOrderRequest()

	f.flightOrders.On("FindActiveByUserAndOffer", mock.Anything, userID, req.Offer.ID).Return(nil, nil)
	f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*entity.Booking")).Return(nil)
	f.bookings.On("Update", mock.Anything, mock.AnythingOfType("*entity.Booking")).Return(nil)
	f.flightOrders.On("Create", mock.Anything, mock.AnythingOfType("*entity.FlightOrder")).Return(nil)
	f.travelers.On("Create", mock.Anything, mock.AnythingOfType("*entity.Traveler")).Return(nil)
	f.travelers.On("CreateDocument", mock.Anything, mock.AnythingOfType("*entity.TravelerDocument")).Return(nil)
	f.flightOrders.On("UpdateStatusIf", mock.Anything, mock.Anything,
		entity.OrderStatusFailed, []entity.OrderStatus{entity.OrderStatusPending}).Return(true, nil)
	f.client.On("CreateOrder", mock.Anything, mock.Anything).Return(nil,
		&provider.Error{Provider: provider.ProviderDuffel, Kind: provider.ErrUpstreamUnavailable, Detail: "502"})

	result, err := service.CreateOrder(context.Background(), userID, req)

	assert.Nil(t, result)
	require.Error(t, err)
	var provErr *provider.Error
	assert.ErrorAs(t, err, &provErr)
	f.flightOrders.AssertExpectations(t)
}

func TestCreateOrderExpiredOnSubmitMapsToOfferExpired(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	userID := uuid.New()
	req := validCreateOrderRequest()

	f.flightOrders.On("FindActiveByUserAndOffer", mock.Anything, userID, req.Offer.ID).Return(nil, nil)
	f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*entity.Booking")).Return(nil)
	f.bookings.On("Update", mock.Anything, mock.AnythingOfType("*entity.Booking")).Return(nil)
	f.flightOrders.On("Create", mock.Anything, mock.AnythingOfType("*entity.FlightOrder")).Return(nil)
	f.travelers.On("Create", mock.Anything, mock.AnythingOfType("*entity.Traveler")).Return(nil)
	f.travelers.On("CreateDocument", mock.Anything, mock.AnythingOfType("*entity.TravelerDocument")).Return(nil)
	f.flightOrders.On("UpdateStatusIf", mock.Anything, mock.Anything,
		entity.OrderStatusFailed, []entity.OrderStatus{entity.OrderStatusPending}).Return(true, nil)
	f.client.On("CreateOrder", mock.Anything, mock.Anything).Return(nil,
		&provider.Error{Provider: provider.ProviderDuffel, Kind: provider.ErrOfferExpired, Detail: "offer expired"})

	_, err := service.CreateOrder(context.Background(), userID, req)

	assert.ErrorIs(t, err, ErrOfferExpired)
}

func TestConfirmPricePriceChanged(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	offer := validOffer()
	repriced := offer
	repriced.Price.Total = decimal.NewFromFloat(1020.50)
	f.client.On("Reprice", mock.Anything, mock.AnythingOfType("provider.FlightOffer")).Return(&repriced, nil)

	result, err := service.ConfirmPrice(context.Background(), &request.ConfirmPriceRequest{Offer: offer})

	require.NoError(t, err)
	assert.True(t, result.PriceChanged)
	assert.True(t, result.OldTotal.Equal(decimal.NewFromFloat(994.23)))
	assert.True(t, result.NewTotal.Equal(decimal.NewFromFloat(1020.50)))
}

func TestConfirmPriceUnchanged(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	offer := validOffer()
	repriced := offer
	f.client.On("Reprice", mock.Anything, mock.AnythingOfType("provider.FlightOffer")).Return(&repriced, nil)

	result, err := service.ConfirmPrice(context.Background(), &request.ConfirmPriceRequest{Offer: offer})

	require.NoError(t, err)
	assert.False(t, result.PriceChanged)
}

func TestConfirmPriceExpiredLocally(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	offer := validOffer()
	expired := time.Now().Add(-time.Second)
	offer.ExpiresAt = &expired

	_, err := service.ConfirmPrice(context.Background(), &request.ConfirmPriceRequest{Offer: offer})

	assert.ErrorIs(t, err, ErrOfferExpired)
	f.client.AssertNotCalled(t, "Reprice", mock.Anything, mock.Anything)
}

func TestCancelOrderSuccess(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	userID := uuid.New()
	bookingID := uuid.New()
	order := &entity.FlightOrder{
		Base:            entity.Base{ID: uuid.New()},
		OrderNumber:     "ORD-FLT-20260901-0002",
		UserID:          userID,
		BookingID:       &bookingID,
		Provider:        "duffel",
		ProviderOrderID: "ord_0000AVxbCt9bRQpoJgmu8M",
		Status:          entity.OrderStatusConfirmed,
	}
	booking := &entity.Booking{
		Base:          entity.Base{ID: bookingID},
		BookingNumber: "BKG-FLT-20260901-0002",
		UserID:        userID,
		Status:        entity.BookingStatusConfirmed,
	}

	f.flightOrders.On("FindByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	f.client.On("CancelOrder", mock.Anything, order.ProviderOrderID).Return(&provider.CancellationResult{
		ProviderOrderID: order.ProviderOrderID,
		CancellationID:  "ore_00009qzZWzjDipIkqpaUAj",
		RefundAmount:    "994.23",
		RefundCurrency:  "USD",
	}, nil)
	f.flightOrders.On("UpdateStatusIf", mock.Anything, order.ID, entity.OrderStatusCancelled,
		[]entity.OrderStatus{entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusTicketed}).
		Return(true, nil)
	f.bookings.On("FindByID", mock.Anything, bookingID).Return(booking, nil)
	f.bookings.On("Update", mock.Anything, booking).Return(nil)
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.notifier.On("SendCancellationNotice", mock.Anything, order).Return(nil)

	result, err := service.CancelOrder(context.Background(), userID, order.OrderNumber)

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, result.Status)
	assert.Equal(t, "ore_00009qzZWzjDipIkqpaUAj", result.CancellationID)
	assert.Equal(t, "994.23", result.RefundAmount)
	assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
	f.notifier.AssertExpectations(t)
}

func TestCancelOrderAlreadyCancelled(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	userID := uuid.New()
	order := &entity.FlightOrder{
		Base:        entity.Base{ID: uuid.New()},
		OrderNumber: "ORD-FLT-20260901-0003",
		UserID:      userID,
		Status:      entity.OrderStatusCancelled,
	}
	f.flightOrders.On("FindByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)

	_, err := service.CancelOrder(context.Background(), userID, order.OrderNumber)

	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	f.client.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything)
}

func TestCancelOrderWrongOwner(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	order := &entity.FlightOrder{
		Base:        entity.Base{ID: uuid.New()},
		OrderNumber: "ORD-FLT-20260901-0004",
		UserID:      uuid.New(),
		Status:      entity.OrderStatusConfirmed,
	}
	f.flightOrders.On("FindByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)

	_, err := service.CancelOrder(context.Background(), uuid.New(), order.OrderNumber)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	f.flightOrders.On("FindByOrderNumber", mock.Anything, "ORD-FLT-NOPE").Return(nil, nil)

	_, err := service.GetOrder(context.Background(), uuid.New(), "ORD-FLT-NOPE")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchUnknownProvider(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	req := &request.SearchFlightsRequest{
		Origin:        "JFK",
		Destination:   "LHR",
		DepartureDate: "2026-10-12",
		Adults:        1,
		Provider:      "amadeus", // not registered in this fixture
	}

	_, err := service.Search(context.Background(), req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "provider")
}

func TestSearchSingleProvider(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	offers := []provider.FlightOffer{validOffer()}
	f.client.On("Search", mock.Anything, mock.AnythingOfType("provider.SearchCriteria")).Return(offers, nil)

	result, err := service.Search(context.Background(), &request.SearchFlightsRequest{
		Origin:        "JFK",
		Destination:   "LHR",
		DepartureDate: "2026-10-12",
		Adults:        1,
		Provider:      "duffel",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, "off_0000AUde6KY1SptM6ABSfU", result.Offers[0].ID)
}

func TestSearchLocationsKeywordTooShort(t *testing.T) {
	f := newServiceFixture()
	service := newFlightService(f)

	_, err := service.SearchLocations(context.Background(), "duffel", "j")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	f.client.AssertNotCalled(t, "SearchLocations", mock.Anything, mock.Anything)
}
