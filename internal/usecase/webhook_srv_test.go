package usecase

import (
	"context"
	"fmt"
	"testing"

	"travel-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWebhookService(f *serviceFixture) WebhookService {
	return NewWebhookService(f.repo, &MockFlightService{}, f.notifier, zap.NewNop())
}

func duffelWebhookPayload(eventType, orderJSON string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "wev_0000AVxcGF8HhlZenKSDHm",
		"type": %q,
		"data": %s
	}`, eventType, orderJSON))
}

const duffelWebhookOrderJSON = `{
	"id": "ord_0000AVxbCt9bRQpoJgmu8M",
	"booking_reference": "RZPNX8",
	"total_amount": "1042.50",
	"total_currency": "USD",
	"base_amount": "860.00",
	"tax_amount": "182.50",
	"created_at": "2026-08-30T09:15:00Z",
	"slices": [{
		"duration": "PT7H15M",
		"segments": [{
			"id": "seg_0000AVxbCszZgrf9rW6Hd7",
			"origin": {"iata_code": "JFK", "city_name": "New York"},
			"destination": {"iata_code": "LHR", "city_name": "London"},
			"departing_at": "2026-10-13T10:45:00",
			"arriving_at": "2026-10-13T22:00:00",
			"marketing_carrier": {"iata_code": "BA", "name": "British Airways"},
			"marketing_carrier_flight_number": "178",
			"operating_carrier": {"iata_code": "BA"},
			"duration": "PT7H15M",
			"passengers": [{"cabin_class": "economy", "baggages": [{"type": "checked", "quantity": 1}]}]
		}]
	}]
}`

func localDuffelOrder(t *testing.T) *entity.FlightOrder {
	t.Helper()
	bookingID := uuid.New()
	return &entity.FlightOrder{
		Base:            entity.Base{ID: uuid.New()},
		OrderNumber:     "ORD-FLT-20260901-0020",
		UserID:          uuid.New(),
		BookingID:       &bookingID,
		Provider:        "duffel",
		ProviderOrderID: "ord_0000AVxbCt9bRQpoJgmu8M",
		PNR:             "RZPNX8",
		Status:          entity.OrderStatusTicketed,
		TotalAmount:     decimal.NewFromFloat(994.23),
		Currency:        "USD",
	}
}

func TestWebhookAuditsBeforeProcessing(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	var audited *entity.AuditLog
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).
		Run(func(args mock.Arguments) {
			audited = args.Get(1).(*entity.AuditLog)
		}).
		Return(nil)
	// the handler itself fails on lookup, the audit row must still exist
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", "ord_0000AVxbCt9bRQpoJgmu8M").
		Return(nil, fmt.Errorf("connection refused"))

	err := service.HandleDuffelEvent(context.Background(), duffelWebhookPayload("order.updated", duffelWebhookOrderJSON))

	require.Error(t, err)
	require.NotNil(t, audited)
	assert.Equal(t, entity.AuditActionWebhook, audited.Action)
	assert.Equal(t, "duffel_event", audited.Entity)
	require.NotNil(t, audited.EntityID)
	assert.Equal(t, "wev_0000AVxcGF8HhlZenKSDHm", *audited.EntityID)
}

func TestWebhookOrderCreatedIsNoOp(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)

	err := service.HandleDuffelEvent(context.Background(), duffelWebhookPayload("order.created", duffelWebhookOrderJSON))

	require.NoError(t, err)
	f.flightOrders.AssertNotCalled(t, "FindByProviderOrderID", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookUnknownEventTypeIgnored(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)

	err := service.HandleDuffelEvent(context.Background(), duffelWebhookPayload("ping.succeeded", `{}`))

	require.NoError(t, err)
	f.flightOrders.AssertNotCalled(t, "FindByProviderOrderID", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookMissingTypeRejected(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	err := service.HandleDuffelEvent(context.Background(), []byte(`{"id": "wev_x", "data": {}}`))

	require.Error(t, err)
	f.audits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWebhookUnknownOrderIgnored(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", "ord_0000AVxbCt9bRQpoJgmu8M").
		Return(nil, nil)

	err := service.HandleDuffelEvent(context.Background(), duffelWebhookPayload("order.updated", duffelWebhookOrderJSON))

	require.NoError(t, err)
	f.flightOrders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestWebhookOrderUpdatedMergesFields(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	order := localDuffelOrder(t)
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", order.ProviderOrderID).Return(order, nil)
	f.flightOrders.On("Update", mock.Anything, order).Return(nil)

	err := service.HandleDuffelEvent(context.Background(), duffelWebhookPayload("order.updated", duffelWebhookOrderJSON))

	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(1042.50)))
	assert.True(t, order.BaseAmount.Equal(decimal.NewFromFloat(860.00)))
	assert.True(t, order.TaxAmount.Equal(decimal.NewFromFloat(182.50)))
	assert.NotEmpty(t, order.OfferSnapshot)
	f.flightOrders.AssertExpectations(t)
}

func TestWebhookCancellationCascades(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	order := localDuffelOrder(t)
	booking := &entity.Booking{
		Base:          entity.Base{ID: *order.BookingID},
		BookingNumber: "BKG-FLT-20260901-0020",
		UserID:        order.UserID,
		Status:        entity.BookingStatusConfirmed,
	}

	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", order.ProviderOrderID).Return(order, nil)
	f.flightOrders.On("UpdateStatusIf", mock.Anything, order.ID, entity.OrderStatusCancelled,
		[]entity.OrderStatus{entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusTicketed}).
		Return(true, nil)
	f.bookings.On("FindByID", mock.Anything, *order.BookingID).Return(booking, nil)
	f.bookings.On("Update", mock.Anything, booking).Return(nil)
	f.notifier.On("SendCancellationNotice", mock.Anything, order).Return(nil)

	err := service.HandleDuffelEvent(context.Background(), duffelWebhookPayload("order.cancelled", duffelWebhookOrderJSON))

	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
	assert.NotNil(t, booking.CancelledAt)
	f.notifier.AssertExpectations(t)
}

func TestWebhookCancellationAfterLocalCancelIsNoOp(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	order := localDuffelOrder(t)
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", order.ProviderOrderID).Return(order, nil)
	f.flightOrders.On("UpdateStatusIf", mock.Anything, order.ID, entity.OrderStatusCancelled,
		[]entity.OrderStatus{entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusTicketed}).
		Return(false, nil)

	err := service.HandleDuffelEvent(context.Background(), duffelWebhookPayload("order.cancelled", duffelWebhookOrderJSON))

	require.NoError(t, err)
	// CAS lost means the cancel already landed; no cascade, no second notice
	f.bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "SendCancellationNotice", mock.Anything, mock.Anything)
}

func TestWebhookScheduleChangeReplacesSegmentsAndNotifies(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	order := localDuffelOrder(t)
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", order.ProviderOrderID).Return(order, nil)

	var replaced []*entity.FlightSegment
	f.segments.On("ReplaceForOrder", mock.Anything, order.ID, mock.AnythingOfType("[]*entity.FlightSegment")).
		Run(func(args mock.Arguments) {
			replaced = args.Get(2).([]*entity.FlightSegment)
		}).
		Return(nil)
	f.flightOrders.On("Update", mock.Anything, order).Return(nil)
	f.notifier.On("SendScheduleChangeNotice", mock.Anything, order).Return(nil).Once()

	err := service.HandleDuffelEvent(context.Background(),
		duffelWebhookPayload("order.airline_initiated_change", duffelWebhookOrderJSON))

	require.NoError(t, err)
	assert.True(t, order.ScheduleChanged)
	require.Len(t, replaced, 1)
	assert.Equal(t, "JFK", replaced[0].DepartureAirport)
	assert.Equal(t, "LHR", replaced[0].ArrivalAirport)
	assert.Equal(t, "BA", replaced[0].MarketingCarrier)
	assert.Equal(t, "178", replaced[0].MarketingFlightNo)
	f.notifier.AssertExpectations(t)
	f.notifier.AssertNumberOfCalls(t, "SendScheduleChangeNotice", 1)
}

func TestWebhookScheduleChangeNotifiesEvenWhenEmailFails(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	order := localDuffelOrder(t)
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", order.ProviderOrderID).Return(order, nil)
	f.segments.On("ReplaceForOrder", mock.Anything, order.ID, mock.AnythingOfType("[]*entity.FlightSegment")).Return(nil)
	f.flightOrders.On("Update", mock.Anything, order).Return(nil)
	f.notifier.On("SendScheduleChangeNotice", mock.Anything, order).Return(fmt.Errorf("smtp down"))

	err := service.HandleDuffelEvent(context.Background(),
		duffelWebhookPayload("order.schedule_changed", duffelWebhookOrderJSON))

	// the change itself is applied; a failed email must not bounce the event
	require.NoError(t, err)
	assert.True(t, order.ScheduleChanged)
}

func TestWebhookOrderChangeConfirmedUpdatesTotals(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	order := localDuffelOrder(t)
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", order.ProviderOrderID).Return(order, nil)
	f.flightOrders.On("Update", mock.Anything, order).Return(nil)

	err := service.HandleDuffelEvent(context.Background(),
		duffelWebhookPayload("order_change.confirmed", duffelWebhookOrderJSON))

	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(1042.50)))
	f.flightOrders.AssertExpectations(t)
}

func TestWebhookCancellationEventWithOrderIDOnly(t *testing.T) {
	f := newServiceFixture()
	service := newWebhookService(f)

	order := localDuffelOrder(t)
	order.BookingID = nil
	f.audits.On("Create", mock.Anything, mock.AnythingOfType("*entity.AuditLog")).Return(nil)
	f.flightOrders.On("FindByProviderOrderID", mock.Anything, "duffel", order.ProviderOrderID).Return(order, nil)
	f.flightOrders.On("UpdateStatusIf", mock.Anything, order.ID, entity.OrderStatusCancelled,
		[]entity.OrderStatus{entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusTicketed}).
		Return(true, nil)
	f.notifier.On("SendCancellationNotice", mock.Anything, order).Return(nil)

	// cancellation objects reference the order by id instead of embedding it
	payload := duffelWebhookPayload("order_cancellation.confirmed",
		`{"id": "ore_00009qzZWzjDipIkqpaUAj", "order_id": "ord_0000AVxbCt9bRQpoJgmu8M", "refund_amount": "994.23"}`)

	err := service.HandleDuffelEvent(context.Background(), payload)

	require.NoError(t, err)
	f.notifier.AssertExpectations(t)
}
