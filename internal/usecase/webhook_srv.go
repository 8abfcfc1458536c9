package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/email"
	"travel-booking/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WebhookService interface {
	HandleDuffelEvent(ctx context.Context, payload json.RawMessage) error
}

type webhookService struct {
	repo     *repository.Repository
	flights  FlightService
	notifier email.Notifier
	log      *zap.Logger
}

func NewWebhookService(
	repo *repository.Repository,
	flights FlightService,
	notifier email.Notifier,
	log *zap.Logger,
) WebhookService {
	return &webhookService{
		repo:     repo,
		flights:  flights,
		notifier: notifier,
		log:      log.With(zap.String("service", "webhook")),
	}
}

type duffelEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (s *webhookService) HandleDuffelEvent(ctx context.Context, payload json.RawMessage) error {
	var event duffelEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode webhook event: %w", err)
	}
	if event.Type == "" {
		return fmt.Errorf("webhook event has no type")
	}

	// Audit before processing so a failed handler still leaves a trace
	s.auditEvent(ctx, event, payload)

	log := s.log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	switch event.Type {
	case "order.created":
		// our own order creation already recorded everything
		log.Info("Webhook acknowledged, no action needed")
		return nil

	case "order.updated":
		return s.handleOrderUpdated(ctx, log, event.Data)

	case "order.cancelled", "order_cancellation.confirmed":
		return s.handleOrderCancelled(ctx, log, event.Data)

	case "order.airline_initiated_change", "order.schedule_changed":
		return s.handleScheduleChanged(ctx, log, event.Data)

	case "order_change.confirmed":
		return s.handleOrderChangeConfirmed(ctx, log, event.Data)

	default:
		log.Info("Ignoring unknown webhook event type")
		return nil
	}
}

// eventOrder pulls the order out of the event payload and resolves the
// matching local row. A nil order with nil error means unknown upstream
// order, which is logged and ignored.
func (s *webhookService) eventOrder(ctx context.Context, log *zap.Logger, data json.RawMessage) (*entity.FlightOrder, *provider.Order, error) {
	upstream, err := provider.ParseDuffelOrder(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse webhook order: %w", err)
	}
	// cancellation events carry the cancellation object, which references
	// the order by order_id instead of embedding it
	var alt struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(data, &alt); err == nil && alt.OrderID != "" {
		upstream.ID = alt.OrderID
	}
	if upstream.ID == "" {
		return nil, nil, fmt.Errorf("webhook payload has no order id")
	}

	order, err := s.repo.FlightOrder.FindByProviderOrderID(ctx, string(provider.ProviderDuffel), upstream.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("find order for webhook: %w", err)
	}
	if order == nil {
		log.Warn("Webhook references unknown order",
			zap.String("provider_order_id", upstream.ID))
		return nil, upstream, nil
	}
	return order, upstream, nil
}

func (s *webhookService) handleOrderUpdated(ctx context.Context, log *zap.Logger, data json.RawMessage) error {
	order, upstream, err := s.eventOrder(ctx, log, data)
	if err != nil || order == nil {
		return err
	}

	now := time.Now()
	if upstream.PNR != "" {
		order.PNR = upstream.PNR
	}
	if !upstream.Price.Total.IsZero() {
		order.TotalAmount = upstream.Price.Total
		order.BaseAmount = upstream.Price.Base
		order.TaxAmount = upstream.Price.Tax
		order.Currency = upstream.Price.Currency
	}
	order.OfferSnapshot = upstream.Raw
	order.UpdatedAt = now
	if err := s.repo.FlightOrder.Update(ctx, order); err != nil {
		return fmt.Errorf("apply order update: %w", err)
	}

	log.Info("Order refreshed from webhook", zap.String("order_number", order.OrderNumber))
	return nil
}

func (s *webhookService) handleOrderCancelled(ctx context.Context, log *zap.Logger, data json.RawMessage) error {
	order, _, err := s.eventOrder(ctx, log, data)
	if err != nil || order == nil {
		return err
	}

	// CAS: a locally-initiated cancel may have landed first
	updated, err := s.repo.FlightOrder.UpdateStatusIf(ctx, order.ID, entity.OrderStatusCancelled,
		entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusTicketed)
	if err != nil {
		return fmt.Errorf("mark order cancelled: %w", err)
	}
	if !updated {
		log.Info("Order already cancelled, webhook is a no-op",
			zap.String("order_number", order.OrderNumber))
		return nil
	}

	if order.BookingID != nil {
		s.cascadeBooking(ctx, log, *order.BookingID)
	}

	order.Status = entity.OrderStatusCancelled
	if err := s.notifier.SendCancellationNotice(ctx, order); err != nil {
		log.Warn("Cancellation notice failed", zap.Error(err))
	}

	log.Info("Order cancelled via webhook", zap.String("order_number", order.OrderNumber))
	return nil
}

func (s *webhookService) handleScheduleChanged(ctx context.Context, log *zap.Logger, data json.RawMessage) error {
	order, upstream, err := s.eventOrder(ctx, log, data)
	if err != nil || order == nil {
		return err
	}

	now := time.Now()

	// Replace the stored itinerary with the airline's new one
	if len(upstream.Itineraries) > 0 {
		segments := buildSegmentsForOrder(order.ID, upstream.Itineraries)
		if err := s.repo.FlightSegment.ReplaceForOrder(ctx, order.ID, segments); err != nil {
			return fmt.Errorf("replace segments: %w", err)
		}
	}

	order.ScheduleChanged = true
	order.OfferSnapshot = upstream.Raw
	order.UpdatedAt = now
	if err := s.repo.FlightOrder.Update(ctx, order); err != nil {
		return fmt.Errorf("flag schedule change: %w", err)
	}

	// the customer must always hear about an airline-initiated change
	if err := s.notifier.SendScheduleChangeNotice(ctx, order); err != nil {
		log.Error("Schedule change notice failed", zap.Error(err),
			zap.String("order_number", order.OrderNumber))
	}

	log.Info("Schedule change applied", zap.String("order_number", order.OrderNumber))
	return nil
}

func (s *webhookService) handleOrderChangeConfirmed(ctx context.Context, log *zap.Logger, data json.RawMessage) error {
	order, upstream, err := s.eventOrder(ctx, log, data)
	if err != nil || order == nil {
		return err
	}

	if upstream.Price.Total.IsZero() {
		log.Info("Order change carried no new total",
			zap.String("order_number", order.OrderNumber))
		return nil
	}

	now := time.Now()
	order.TotalAmount = upstream.Price.Total
	order.BaseAmount = upstream.Price.Base
	order.TaxAmount = upstream.Price.Tax
	if upstream.Price.Currency != "" {
		order.Currency = upstream.Price.Currency
	}
	order.UpdatedAt = now
	if err := s.repo.FlightOrder.Update(ctx, order); err != nil {
		return fmt.Errorf("apply order change total: %w", err)
	}

	log.Info("Order change confirmed",
		zap.String("order_number", order.OrderNumber),
		zap.String("new_total", order.TotalAmount.String()))
	return nil
}

func (s *webhookService) cascadeBooking(ctx context.Context, log *zap.Logger, bookingID uuid.UUID) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil || booking == nil {
		log.Error("Failed to load booking for cascade",
			zap.Error(err), zap.String("booking_id", bookingID.String()))
		return
	}

	now := time.Now()
	booking.Status = entity.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.UpdatedAt = now
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		log.Error("Failed to cascade booking cancellation", zap.Error(err))
	}
}

func (s *webhookService) auditEvent(ctx context.Context, event duffelEvent, payload json.RawMessage) {
	eventID := event.ID
	record := &entity.AuditLog{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Action:     entity.AuditActionWebhook,
		Entity:     "duffel_event",
		EntityID:   &eventID,
		Metadata:   payload,
	}
	if err := s.repo.AuditLog.Create(ctx, record); err != nil {
		s.log.Error("Failed to audit webhook event",
			zap.Error(err), zap.String("event_id", event.ID))
	}
}

// buildSegmentsForOrder flattens normalized itineraries into segment rows
func buildSegmentsForOrder(orderID uuid.UUID, itineraries []provider.Itinerary) []*entity.FlightSegment {
	now := time.Now()
	var segments []*entity.FlightSegment
	number := 0
	for _, itinerary := range itineraries {
		for _, seg := range itinerary.Segments {
			number++
			segment := &entity.FlightSegment{
				BaseSimple:         entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
				FlightOrderID:      orderID,
				SegmentNumber:      number,
				DepartureAirport:   seg.Departure.IATACode,
				DepartureTime:      seg.Departure.At,
				ArrivalAirport:     seg.Arrival.IATACode,
				ArrivalTime:        seg.Arrival.At,
				MarketingCarrier:   seg.CarrierCode,
				MarketingFlightNo:  seg.FlightNumber,
				CabinClass:         seg.CabinClass,
				CheckedBagsAllowed: seg.CheckedBags,
				DurationMinutes:    seg.DurationMinutes,
			}
			if seg.Departure.Terminal != "" {
				v := seg.Departure.Terminal
				segment.DepartureTerminal = &v
			}
			if seg.Arrival.Terminal != "" {
				v := seg.Arrival.Terminal
				segment.ArrivalTerminal = &v
			}
			if seg.OperatingCarrier != "" {
				v := seg.OperatingCarrier
				segment.OperatingCarrier = &v
			}
			segments = append(segments, segment)
		}
	}
	return segments
}
