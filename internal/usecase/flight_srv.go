package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/internal/email"
	"travel-booking/internal/provider"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FlightService interface {
	Search(ctx context.Context, req *request.SearchFlightsRequest) (*response.SearchFlightsResponse, error)
	ConfirmPrice(ctx context.Context, req *request.ConfirmPriceRequest) (*response.ConfirmPriceResponse, error)
	CreateOrder(ctx context.Context, userID uuid.UUID, req *request.CreateFlightOrderRequest) (*response.CreateOrderResponse, error)
	GetOrder(ctx context.Context, userID uuid.UUID, orderRef string) (*response.FlightOrderResponse, error)
	CancelOrder(ctx context.Context, userID uuid.UUID, orderRef string) (*response.CancellationResponse, error)
	MyOrders(ctx context.Context, userID uuid.UUID, page, perPage int) ([]response.FlightOrderResponse, *response.PaginationMeta, error)
	SearchLocations(ctx context.Context, providerName, keyword string) ([]provider.Place, error)
	SeatMaps(ctx context.Context, req *request.SeatMapsRequest) (json.RawMessage, error)
}

type flightService struct {
	repo     *repository.Repository
	router   *provider.Router
	notifier email.Notifier
	config   *utils.Config
	log      *zap.Logger
}

func NewFlightService(
	repo *repository.Repository,
	router *provider.Router,
	notifier email.Notifier,
	config *utils.Config,
	log *zap.Logger,
) FlightService {
	return &flightService{
		repo:     repo,
		router:   router,
		notifier: notifier,
		config:   config,
		log:      log.With(zap.String("service", "flight")),
	}
}

func (s *flightService) Search(ctx context.Context, req *request.SearchFlightsRequest) (*response.SearchFlightsResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Search validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	criteria := provider.SearchCriteria{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Adults:        req.Adults,
		Children:      req.Children,
		Infants:       req.Infants,
		TravelClass:   req.TravelClass,
		NonStop:       req.NonStop,
		CurrencyCode:  req.CurrencyCode,
		MaxResults:    req.MaxResults,
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.config.Flights.SearchTimeout)
	defer cancel()

	var offers []provider.FlightOffer
	var err error
	if req.Provider == "all" {
		offers, err = s.router.SearchAll(searchCtx, criteria)
	} else {
		var client provider.Client
		client, err = s.router.Get(provider.Provider(req.Provider))
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"provider": err.Error()}}
		}
		offers, err = client.Search(searchCtx, criteria)
	}
	if err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}

	s.log.Info("Flight search completed",
		zap.String("origin", req.Origin),
		zap.String("destination", req.Destination),
		zap.Int("offers", len(offers)))

	return &response.SearchFlightsResponse{Offers: offers, Count: len(offers)}, nil
}

func (s *flightService) ConfirmPrice(ctx context.Context, req *request.ConfirmPriceRequest) (*response.ConfirmPriceResponse, error) {
	if req.Offer.ID == "" || len(req.Offer.Raw) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"offer": "A full offer from search is required"}}
	}

	if req.Offer.Expired(time.Now()) {
		return nil, ErrOfferExpired
	}

	client, err := s.router.Get(req.Offer.Provider)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"offer": err.Error()}}
	}

	repriced, err := client.Reprice(ctx, req.Offer)
	if err != nil {
		return nil, s.mapProviderError("confirm price", err)
	}

	changed := !repriced.Price.Total.Equal(req.Offer.Price.Total)
	if changed {
		s.log.Info("Offer price changed on confirmation",
			zap.String("offer_id", req.Offer.ID),
			zap.String("old_total", req.Offer.Price.Total.String()),
			zap.String("new_total", repriced.Price.Total.String()))
	}

	return &response.ConfirmPriceResponse{
		Offer:        *repriced,
		PriceChanged: changed,
		OldTotal:     req.Offer.Price.Total,
		NewTotal:     repriced.Price.Total,
	}, nil
}

func (s *flightService) CreateOrder(ctx context.Context, userID uuid.UUID, req *request.CreateFlightOrderRequest) (*response.CreateOrderResponse, error) {
	// 1. Validate before anything touches a provider
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create order validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}
	if req.Offer.ID == "" || len(req.Offer.Raw) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"offer": "A full offer from search is required"}}
	}
	if vErr := validateTravelerDocuments(req.Travelers, time.Now()); vErr != nil {
		s.log.Warn("Create order validation failed", zap.Any("errors", vErr.Fields))
		return nil, vErr
	}

	// 2. Local expiry check saves a doomed provider round trip
	if req.Offer.Expired(time.Now()) {
		return nil, ErrOfferExpired
	}

	// 3. Duplicate check: one active order per user per upstream offer
	existing, err := s.repo.FlightOrder.FindActiveByUserAndOffer(ctx, userID, req.Offer.ID)
	if err != nil {
		return nil, fmt.Errorf("duplicate order check: %w", err)
	}
	if existing != nil {
		s.log.Info("Duplicate order blocked",
			zap.String("user_id", userID.String()),
			zap.String("upstream_offer_id", req.Offer.ID),
			zap.String("existing_order", existing.OrderNumber))
		return nil, &DuplicateOrderError{Order: existing}
	}

	// 4. Persist the pending booking and order before the provider call so
	// a timeout leaves a pollable record instead of nothing
	booking, order, err := s.persistPendingOrder(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	// 5. Call the provider under the order deadline
	orderCtx, cancel := context.WithTimeout(ctx, s.config.Flights.OrderTimeout)
	defer cancel()

	client, err := s.router.Get(req.Offer.Provider)
	if err != nil {
		s.markOrderFailed(ctx, booking, order)
		return nil, &ValidationError{Fields: map[string]string{"offer": err.Error()}}
	}

	providerOrder, err := client.CreateOrder(orderCtx, s.buildOrderInput(req))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Outcome unknown upstream. Keep the pending row; the client
			// must poll the order status, not fire the request again.
			s.log.Warn("Provider order creation timed out",
				zap.String("order_number", order.OrderNumber),
				zap.String("provider", order.Provider))
			s.audit(ctx, &userID, entity.AuditActionCreate, "flight_order", order.OrderNumber,
				map[string]any{"outcome": "timeout_pending"})
			return nil, &TimeoutPendingError{OrderNumber: order.OrderNumber}
		}

		s.markOrderFailed(ctx, booking, order)
		return nil, s.mapProviderError("create order", err)
	}

	// 6. Fold the provider result into the stored rows
	now := time.Now()
	order.ProviderOrderID = providerOrder.ID
	order.PNR = providerOrder.PNR
	order.Status = entity.OrderStatusConfirmed
	if !providerOrder.Price.Total.IsZero() {
		order.TotalAmount = providerOrder.Price.Total
		order.BaseAmount = providerOrder.Price.Base
		order.TaxAmount = providerOrder.Price.Tax
		order.Currency = providerOrder.Price.Currency
	}
	order.UpdatedAt = now
	if err := s.repo.FlightOrder.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("store confirmed order: %w", err)
	}

	booking.Status = entity.BookingStatusConfirmed
	booking.ConfirmedAt = &now
	booking.TotalAmount = order.TotalAmount
	booking.Currency = order.Currency
	booking.UpdatedAt = now
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}

	segments := buildSegmentsForOrder(order.ID, providerOrder.Itineraries)
	if len(segments) == 0 {
		segments = buildSegmentsForOrder(order.ID, req.Offer.Itineraries)
	}
	if err := s.repo.FlightSegment.CreateBatch(ctx, segments); err != nil {
		return nil, fmt.Errorf("store flight segments: %w", err)
	}

	s.audit(ctx, &userID, entity.AuditActionCreate, "flight_order", order.OrderNumber,
		map[string]any{"provider": order.Provider, "provider_order_id": providerOrder.ID, "pnr": providerOrder.PNR})

	s.log.Info("Flight order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("provider", order.Provider),
		zap.String("pnr", order.PNR))

	resp := response.FlightOrderToResponse(order, segments)
	return &response.CreateOrderResponse{Order: resp, Duplicate: false}, nil
}

// persistPendingOrder writes the booking, order, travelers and documents in
// pending state.
func (s *flightService) persistPendingOrder(ctx context.Context, userID uuid.UUID, req *request.CreateFlightOrderRequest) (*entity.Booking, *entity.FlightOrder, error) {
	now := time.Now()

	travelDate := now
	if len(req.Offer.Itineraries) > 0 && len(req.Offer.Itineraries[0].Segments) > 0 {
		travelDate = req.Offer.Itineraries[0].Segments[0].Departure.At
	}

	booking := &entity.Booking{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingNumber:  utils.GenerateBookingNumber(),
		UserID:         userID,
		BookingType:    entity.BookingTypeFlight,
		Status:         entity.BookingStatusPending,
		PaymentStatus:  entity.BookingPaymentUnpaid,
		TravelDate:     travelDate,
		NumberOfPeople: len(req.Travelers),
		TotalAmount:    req.Offer.Price.Total,
		Currency:       req.Offer.Price.Currency,
		ContactName:    req.Contacts.Name,
		ContactEmail:   req.Contacts.Email,
		ContactPhone:   req.Contacts.Phone,
	}
	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, nil, fmt.Errorf("create booking: %w", err)
	}

	order := &entity.FlightOrder{
		Base:              entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OrderNumber:       utils.GenerateOrderNumber(),
		UserID:            userID,
		BookingID:         &booking.ID,
		Provider:          string(req.Offer.Provider),
		UpstreamOfferID:   req.Offer.ID,
		Status:            entity.OrderStatusPending,
		TicketingStatus:   entity.TicketingNotIssued,
		TotalAmount:       req.Offer.Price.Total,
		BaseAmount:        req.Offer.Price.Base,
		TaxAmount:         req.Offer.Price.Tax,
		Currency:          req.Offer.Price.Currency,
		NumberOfTravelers: len(req.Travelers),
		ContactEmail:      req.Contacts.Email,
		ContactPhone:      req.Contacts.Phone,
		ExpiresAt:         req.Offer.ExpiresAt,
	}
	if req.Offer.ValidatingAirline != "" {
		airline := req.Offer.ValidatingAirline
		order.ValidatingAirline = &airline
	}
	if snapshot, err := json.Marshal(req.Offer); err == nil {
		order.OfferSnapshot = snapshot
	}
	if err := s.repo.FlightOrder.Create(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("create flight order: %w", err)
	}

	booking.ReferenceID = &order.ID
	booking.UpdatedAt = now
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		return nil, nil, fmt.Errorf("link booking to order: %w", err)
	}

	if err := s.persistTravelers(ctx, booking.ID, req.Travelers); err != nil {
		return nil, nil, err
	}

	return booking, order, nil
}

// validateTravelerDocuments enforces what the struct tags cannot: every
// traveler must carry at least one identity document that is still valid at
// booking time.
func validateTravelerDocuments(travelers []request.TravelerRequest, now time.Time) *ValidationError {
	for i, t := range travelers {
		if len(t.Documents) == 0 {
			return &ValidationError{Fields: map[string]string{
				fmt.Sprintf("travelers[%d].documents", i): "At least one identity document is required",
			}}
		}
		for j, d := range t.Documents {
			expiry, err := time.Parse("2006-01-02", d.ExpiryDate)
			if err != nil {
				return &ValidationError{Fields: map[string]string{
					fmt.Sprintf("travelers[%d].documents[%d].expiry_date", i, j): "Must be YYYY-MM-DD",
				}}
			}
			if !expiry.After(now) {
				return &ValidationError{Fields: map[string]string{
					fmt.Sprintf("travelers[%d].documents[%d].expiry_date", i, j): "Identity document is expired",
				}}
			}
		}
	}
	return nil
}

func (s *flightService) persistTravelers(ctx context.Context, bookingID uuid.UUID, travelers []request.TravelerRequest) error {
	now := time.Now()
	for _, t := range travelers {
		dob, err := time.Parse("2006-01-02", t.DateOfBirth)
		if err != nil {
			return &ValidationError{Fields: map[string]string{"date_of_birth": "Must be YYYY-MM-DD"}}
		}

		passengerType := entity.PassengerType(t.PassengerType)
		if passengerType == "" {
			passengerType = entity.PassengerAdult
		}

		traveler := &entity.Traveler{
			Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			BookingID:     bookingID,
			FirstName:     t.FirstName,
			LastName:      t.LastName,
			Gender:        t.Gender,
			DateOfBirth:   dob,
			PassengerType: passengerType,
		}
		if t.Email != "" {
			v := t.Email
			traveler.Email = &v
		}
		if t.PhoneCountryCode != "" {
			v := t.PhoneCountryCode
			traveler.PhoneCountryCode = &v
		}
		if t.PhoneNumber != "" {
			v := t.PhoneNumber
			traveler.PhoneNumber = &v
		}
		if t.Nationality != "" {
			v := t.Nationality
			traveler.Nationality = &v
		}
		if t.OfferPassengerID != "" {
			v := t.OfferPassengerID
			traveler.ProviderPassengerID = &v
		}

		if err := s.repo.Traveler.Create(ctx, traveler); err != nil {
			return fmt.Errorf("store traveler: %w", err)
		}

		for _, d := range t.Documents {
			expiry, err := time.Parse("2006-01-02", d.ExpiryDate)
			if err != nil {
				return &ValidationError{Fields: map[string]string{"expiry_date": "Must be YYYY-MM-DD"}}
			}
			document := &entity.TravelerDocument{
				BaseSimple:     entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
				TravelerID:     traveler.ID,
				DocumentType:   d.Type,
				DocumentNumber: d.Number,
				IssuingCountry: d.IssuanceCountry,
				ExpiryDate:     expiry,
			}
			if d.Nationality != "" {
				v := d.Nationality
				document.Nationality = &v
			}
			if err := s.repo.Traveler.CreateDocument(ctx, document); err != nil {
				return fmt.Errorf("store traveler document: %w", err)
			}
		}
	}
	return nil
}

func (s *flightService) buildOrderInput(req *request.CreateFlightOrderRequest) provider.OrderInput {
	travelers := make([]provider.Traveler, 0, len(req.Travelers))
	for _, t := range req.Travelers {
		documents := make([]provider.TravelerDocument, 0, len(t.Documents))
		for _, d := range t.Documents {
			documents = append(documents, provider.TravelerDocument{
				Type:            d.Type,
				Number:          d.Number,
				ExpiryDate:      d.ExpiryDate,
				IssuanceCountry: d.IssuanceCountry,
				Nationality:     d.Nationality,
			})
		}
		travelers = append(travelers, provider.Traveler{
			FirstName:        t.FirstName,
			LastName:         t.LastName,
			Gender:           t.Gender,
			DateOfBirth:      t.DateOfBirth,
			Email:            t.Email,
			PhoneCountryCode: t.PhoneCountryCode,
			PhoneNumber:      t.PhoneNumber,
			PassengerType:    t.PassengerType,
			OfferPassengerID: t.OfferPassengerID,
			Documents:        documents,
		})
	}

	return provider.OrderInput{
		Offer:     req.Offer,
		Travelers: travelers,
		Contacts: provider.Contacts{
			Name:  req.Contacts.Name,
			Email: req.Contacts.Email,
			Phone: req.Contacts.Phone,
		},
		Remarks: req.Remarks,
	}
}

func (s *flightService) markOrderFailed(ctx context.Context, booking *entity.Booking, order *entity.FlightOrder) {
	if _, err := s.repo.FlightOrder.UpdateStatusIf(ctx, order.ID,
		entity.OrderStatusFailed, entity.OrderStatusPending); err != nil {
		s.log.Error("Failed to mark order failed",
			zap.Error(err), zap.String("order_number", order.OrderNumber))
	}

	now := time.Now()
	booking.Status = entity.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.UpdatedAt = now
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		s.log.Error("Failed to cancel booking after order failure",
			zap.Error(err), zap.String("booking_number", booking.BookingNumber))
	}
}

// findOwnedOrder resolves an order by order number or UUID and enforces
// ownership.
func (s *flightService) findOwnedOrder(ctx context.Context, userID uuid.UUID, orderRef string) (*entity.FlightOrder, error) {
	var order *entity.FlightOrder
	var err error

	if id, parseErr := uuid.Parse(orderRef); parseErr == nil {
		order, err = s.repo.FlightOrder.FindByID(ctx, id)
	} else {
		order, err = s.repo.FlightOrder.FindByOrderNumber(ctx, orderRef)
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderRef, err)
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *flightService) GetOrder(ctx context.Context, userID uuid.UUID, orderRef string) (*response.FlightOrderResponse, error) {
	order, err := s.findOwnedOrder(ctx, userID, orderRef)
	if err != nil {
		return nil, err
	}

	segments, err := s.repo.FlightSegment.FindByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load segments: %w", err)
	}

	resp := response.FlightOrderToResponse(order, segments)
	return &resp, nil
}

func (s *flightService) CancelOrder(ctx context.Context, userID uuid.UUID, orderRef string) (*response.CancellationResponse, error) {
	order, err := s.findOwnedOrder(ctx, userID, orderRef)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case entity.OrderStatusCancelled, entity.OrderStatusRefunded:
		return nil, ErrAlreadyCancelled
	case entity.OrderStatusFailed, entity.OrderStatusExpired:
		return nil, ErrOrderNotActionable
	}

	client, err := s.router.Get(provider.Provider(order.Provider))
	if err != nil {
		return nil, fmt.Errorf("resolve provider: %w", err)
	}

	result, err := client.CancelOrder(ctx, order.ProviderOrderID)
	if err != nil {
		return nil, s.mapProviderError("cancel order", err)
	}

	// Compare-and-set so a webhook arriving mid-flight cannot double-apply
	updated, err := s.repo.FlightOrder.UpdateStatusIf(ctx, order.ID, entity.OrderStatusCancelled,
		entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusTicketed)
	if err != nil {
		return nil, fmt.Errorf("mark order cancelled: %w", err)
	}
	if !updated {
		s.log.Info("Order already transitioned before local cancel",
			zap.String("order_number", order.OrderNumber))
	}

	if order.BookingID != nil {
		s.cascadeBookingCancellation(ctx, *order.BookingID)
	}

	s.audit(ctx, &userID, entity.AuditActionDelete, "flight_order", order.OrderNumber,
		map[string]any{"cancellation_id": result.CancellationID, "refund_amount": result.RefundAmount})

	order.Status = entity.OrderStatusCancelled
	if err := s.notifier.SendCancellationNotice(ctx, order); err != nil {
		s.log.Warn("Cancellation notice failed", zap.Error(err),
			zap.String("order_number", order.OrderNumber))
	}

	s.log.Info("Flight order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.String("provider", order.Provider))

	return &response.CancellationResponse{
		OrderNumber:    order.OrderNumber,
		Status:         entity.OrderStatusCancelled,
		CancellationID: result.CancellationID,
		RefundAmount:   result.RefundAmount,
		RefundCurrency: result.RefundCurrency,
	}, nil
}

func (s *flightService) cascadeBookingCancellation(ctx context.Context, bookingID uuid.UUID) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil || booking == nil {
		s.log.Error("Failed to load booking for cascade cancel",
			zap.Error(err), zap.String("booking_id", bookingID.String()))
		return
	}

	now := time.Now()
	booking.Status = entity.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.UpdatedAt = now
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		s.log.Error("Failed to cascade booking cancellation",
			zap.Error(err), zap.String("booking_number", booking.BookingNumber))
	}
}

func (s *flightService) MyOrders(ctx context.Context, userID uuid.UUID, page, perPage int) ([]response.FlightOrderResponse, *response.PaginationMeta, error) {
	offset := utils.CalculateOffset(page, perPage)

	orders, err := s.repo.FlightOrder.FindByUser(ctx, userID, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list orders: %w", err)
	}

	total, err := s.repo.FlightOrder.CountByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("count orders: %w", err)
	}

	items := make([]response.FlightOrderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, response.FlightOrderToResponse(order, nil))
	}

	meta := &response.PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: utils.CalculateTotalPages(total, perPage),
	}

	return items, meta, nil
}

func (s *flightService) SearchLocations(ctx context.Context, providerName, keyword string) ([]provider.Place, error) {
	if len(keyword) < 2 {
		return nil, &ValidationError{Fields: map[string]string{"keyword": "Minimum length is 2"}}
	}

	client, err := s.router.Get(provider.Provider(providerName))
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"provider": err.Error()}}
	}

	places, err := client.SearchLocations(ctx, keyword)
	if err != nil {
		return nil, s.mapProviderError("search locations", err)
	}
	return places, nil
}

func (s *flightService) SeatMaps(ctx context.Context, req *request.SeatMapsRequest) (json.RawMessage, error) {
	if req.Offer.ID == "" {
		return nil, &ValidationError{Fields: map[string]string{"offer": "A full offer from search is required"}}
	}

	client, err := s.router.Get(req.Offer.Provider)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"offer": err.Error()}}
	}

	maps, err := client.GetSeatMaps(ctx, req.Offer)
	if err != nil {
		return nil, s.mapProviderError("seat maps", err)
	}
	return maps, nil
}

func (s *flightService) mapProviderError(op string, err error) error {
	var provErr *provider.Error
	if errors.As(err, &provErr) && provErr.Kind == provider.ErrOfferExpired {
		return ErrOfferExpired
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *flightService) audit(ctx context.Context, userID *uuid.UUID, action entity.AuditAction, entityName, entityID string, metadata map[string]any) {
	raw, _ := json.Marshal(metadata)
	record := &entity.AuditLog{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		UserID:     userID,
		Action:     action,
		Entity:     entityName,
		EntityID:   &entityID,
		Metadata:   raw,
	}
	if err := s.repo.AuditLog.Create(ctx, record); err != nil {
		s.log.Error("Failed to write audit log", zap.Error(err),
			zap.String("entity", entityName), zap.String("entity_id", entityID))
	}
}
