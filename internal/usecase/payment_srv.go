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
	"travel-booking/internal/payment"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentService interface {
	// BookAndPay books the flight first, then opens a payment page for the
	// created order (book-then-pay).
	BookAndPay(ctx context.Context, userID uuid.UUID, req *request.BookAndPayRequest) (*response.ChargePageResponse, error)
	// PayThenBook charges up front; the flight is only booked once the
	// gateway confirms the capture on the callback.
	PayThenBook(ctx context.Context, userID uuid.UUID, req *request.PayThenBookRequest) (*response.ChargePageResponse, error)
	HandlePayTabsCallback(ctx context.Context, tranRef string) (*response.PaymentCompletionResponse, error)
}

type paymentService struct {
	repo     *repository.Repository
	flights  FlightService
	gateway  payment.Gateway
	notifier email.Notifier
	config   *utils.Config
	log      *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	flights FlightService,
	gateway payment.Gateway,
	notifier email.Notifier,
	config *utils.Config,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:     repo,
		flights:  flights,
		gateway:  gateway,
		notifier: notifier,
		config:   config,
		log:      log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) callbackURL() string {
	return s.config.App.BackendURL + "/api/payments/paytabs/callback"
}

func (s *paymentService) returnURL(override string) string {
	if override != "" {
		return override
	}
	return s.config.App.FrontendURL + "/payments/return"
}

func (s *paymentService) BookAndPay(ctx context.Context, userID uuid.UUID, req *request.BookAndPayRequest) (*response.ChargePageResponse, error) {
	// 1. Book the flight. Duplicate and expiry rules are enforced inside.
	created, err := s.flights.CreateOrder(ctx, userID, &req.CreateFlightOrderRequest)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FlightOrder.FindByOrderNumber(ctx, created.Order.OrderNumber)
	if err != nil || order == nil {
		return nil, fmt.Errorf("reload created order: %w", err)
	}

	// 2. Open the hosted payment page for the booked amount
	page, err := s.gateway.CreateChargePage(ctx, payment.ChargePageInput{
		CartID:        order.OrderNumber,
		Amount:        order.TotalAmount,
		Currency:      order.Currency,
		Description:   fmt.Sprintf("Flight order %s", order.OrderNumber),
		CustomerName:  req.Contacts.Name,
		CustomerEmail: req.Contacts.Email,
		CustomerPhone: req.Contacts.Phone,
		ReturnURL:     s.returnURL(req.ReturnURL),
		CallbackURL:   s.callbackURL(),
	})
	if err != nil {
		s.log.Error("Failed to open payment page for booked order",
			zap.Error(err), zap.String("order_number", order.OrderNumber))
		return nil, fmt.Errorf("open payment page: %w", err)
	}

	// 3. Record the pending payment against the booking
	pay, err := s.createPendingPayment(ctx, userID, order.BookingID, page.TransactionRef,
		order.TotalAmount, order.Currency, nil)
	if err != nil {
		return nil, err
	}

	s.log.Info("Book-and-pay charge page created",
		zap.String("order_number", order.OrderNumber),
		zap.String("tran_ref", page.TransactionRef))

	return &response.ChargePageResponse{
		PaymentID:      pay.ID.String(),
		TransactionRef: page.TransactionRef,
		RedirectURL:    page.RedirectURL,
	}, nil
}

// payThenBookPayload is stashed in the payment's metadata until the gateway
// confirms the capture.
type payThenBookPayload struct {
	UserID  uuid.UUID                        `json:"user_id"`
	Request request.CreateFlightOrderRequest `json:"request"`
}

func (s *paymentService) PayThenBook(ctx context.Context, userID uuid.UUID, req *request.PayThenBookRequest) (*response.ChargePageResponse, error) {
	// 1. The same guards as a direct booking, before any money moves
	if errs := utils.ValidateStruct(&req.CreateFlightOrderRequest); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	if req.Offer.ID == "" || len(req.Offer.Raw) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"offer": "A full offer from search is required"}}
	}
	if vErr := validateTravelerDocuments(req.Travelers, time.Now()); vErr != nil {
		return nil, vErr
	}
	if req.Offer.Expired(time.Now()) {
		return nil, ErrOfferExpired
	}

	existing, err := s.repo.FlightOrder.FindActiveByUserAndOffer(ctx, userID, req.Offer.ID)
	if err != nil {
		return nil, fmt.Errorf("duplicate order check: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateOrderError{Order: existing}
	}

	// 2. Open the payment page for the offer total
	cartID := utils.GenerateBookingNumber()
	page, err := s.gateway.CreateChargePage(ctx, payment.ChargePageInput{
		CartID:        cartID,
		Amount:        req.Offer.Price.Total,
		Currency:      req.Offer.Price.Currency,
		Description:   fmt.Sprintf("Flight booking %s", cartID),
		CustomerName:  req.Contacts.Name,
		CustomerEmail: req.Contacts.Email,
		CustomerPhone: req.Contacts.Phone,
		ReturnURL:     s.returnURL(req.ReturnURL),
		CallbackURL:   s.callbackURL(),
	})
	if err != nil {
		return nil, fmt.Errorf("open payment page: %w", err)
	}

	// 3. Stash the booking payload with the pending payment; the callback
	// books from it once the money is confirmed
	payload, err := json.Marshal(payThenBookPayload{UserID: userID, Request: req.CreateFlightOrderRequest})
	if err != nil {
		return nil, fmt.Errorf("stash booking payload: %w", err)
	}

	pay, err := s.createPendingPayment(ctx, userID, nil, page.TransactionRef,
		req.Offer.Price.Total, req.Offer.Price.Currency, payload)
	if err != nil {
		return nil, err
	}

	s.log.Info("Pay-then-book charge page created",
		zap.String("cart_id", cartID),
		zap.String("tran_ref", page.TransactionRef))

	return &response.ChargePageResponse{
		PaymentID:      pay.ID.String(),
		TransactionRef: page.TransactionRef,
		RedirectURL:    page.RedirectURL,
	}, nil
}

func (s *paymentService) createPendingPayment(ctx context.Context, userID uuid.UUID, bookingID *uuid.UUID, tranRef string, amount decimal.Decimal, currency string, metadata json.RawMessage) (*entity.Payment, error) {
	now := time.Now()
	pay := &entity.Payment{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:         userID,
		BookingID:      bookingID,
		TransactionID:  tranRef,
		Amount:         amount,
		Currency:       currency,
		PaymentMethod:  "card",
		PaymentGateway: "paytabs",
		Status:         entity.PaymentStatusPending,
		Metadata:       metadata,
	}
	if err := s.repo.Payment.Create(ctx, pay); err != nil {
		return nil, fmt.Errorf("record pending payment: %w", err)
	}
	return pay, nil
}

func (s *paymentService) HandlePayTabsCallback(ctx context.Context, tranRef string) (*response.PaymentCompletionResponse, error) {
	if tranRef == "" {
		return nil, &ValidationError{Fields: map[string]string{"tran_ref": "This field is required"}}
	}

	pay, err := s.repo.Payment.FindByTransactionID(ctx, tranRef)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if pay == nil {
		return nil, ErrNotFound
	}

	// Gateways redeliver callbacks; a settled payment is returned as-is
	if pay.Status != entity.PaymentStatusPending {
		s.log.Info("Callback for already-settled payment",
			zap.String("tran_ref", tranRef),
			zap.String("status", string(pay.Status)))
		resp := response.PaymentToResponse(pay)
		return &response.PaymentCompletionResponse{Payment: resp}, nil
	}

	// Never trust the callback body; ask the gateway
	verification, err := s.gateway.VerifyPayment(ctx, tranRef)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	now := time.Now()
	if !verification.Approved {
		pay.Status = entity.PaymentStatusFailed
		pay.UpdatedAt = now
		if err := s.repo.Payment.Update(ctx, pay); err != nil {
			s.log.Error("Failed to record declined payment", zap.Error(err))
		}
		s.log.Warn("Payment not approved",
			zap.String("tran_ref", tranRef),
			zap.String("response_status", verification.ResponseStatus))
		return nil, ErrPaymentFailed
	}

	pay.Status = entity.PaymentStatusCompleted
	pay.PaidAt = &now
	pay.UpdatedAt = now
	if err := s.repo.Payment.Update(ctx, pay); err != nil {
		return nil, fmt.Errorf("record completed payment: %w", err)
	}

	if pay.BookingID != nil {
		return s.settleBookThenPay(ctx, pay)
	}
	return s.settlePayThenBook(ctx, pay)
}

// settleBookThenPay marks the already-created order paid and ticketed
func (s *paymentService) settleBookThenPay(ctx context.Context, pay *entity.Payment) (*response.PaymentCompletionResponse, error) {
	booking, err := s.repo.Booking.FindByID(ctx, *pay.BookingID)
	if err != nil || booking == nil {
		return nil, fmt.Errorf("load booking for payment %s: %w", pay.TransactionID, err)
	}

	now := time.Now()
	booking.PaymentStatus = entity.BookingPaymentPaid
	booking.UpdatedAt = now
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("mark booking paid: %w", err)
	}

	resp := response.PaymentToResponse(pay)
	result := &response.PaymentCompletionResponse{Payment: resp}

	if booking.ReferenceID != nil {
		order, err := s.repo.FlightOrder.FindByID(ctx, *booking.ReferenceID)
		if err == nil && order != nil {
			s.ticketOrder(ctx, order)
			orderResp := response.FlightOrderToResponse(order, nil)
			result.Order = &orderResp
		}
	}

	s.log.Info("Book-then-pay settled", zap.String("tran_ref", pay.TransactionID))
	return result, nil
}

// settlePayThenBook books the flight now that the money is confirmed. If the
// booking fails the charge is refunded; if the refund also fails the payment
// is parked for manual review.
func (s *paymentService) settlePayThenBook(ctx context.Context, pay *entity.Payment) (*response.PaymentCompletionResponse, error) {
	var payload payThenBookPayload
	if err := json.Unmarshal(pay.Metadata, &payload); err != nil {
		return nil, fmt.Errorf("read stashed booking payload: %w", err)
	}

	var created *response.CreateOrderResponse
	var pending *TimeoutPendingError
	steps := []sagaStep{
		{
			name: "capture_payment",
			// already captured by the gateway; on later failure the
			// compensation refunds it
			run: func(ctx context.Context) error { return nil },
			compensate: func(ctx context.Context) error {
				pay.Status = entity.PaymentStatusRefundPending
				pay.UpdatedAt = time.Now()
				if err := s.repo.Payment.Update(ctx, pay); err != nil {
					s.log.Error("Failed to mark payment refund pending", zap.Error(err),
						zap.String("tran_ref", pay.TransactionID))
				}
				result, err := s.gateway.Refund(ctx, pay.TransactionID, pay.TransactionID,
					pay.Amount, pay.Currency, "flight booking failed after payment")
				if err != nil {
					return err
				}
				if !result.Approved {
					return fmt.Errorf("refund not approved: %s", result.ResponseStatus)
				}
				return nil
			},
		},
		{
			name: "create_flight_order",
			run: func(ctx context.Context) error {
				var err error
				created, err = s.flights.CreateOrder(ctx, payload.UserID, &payload.Request)
				if errors.As(err, &pending) {
					// The upstream outcome is unknown, so a refund here
					// could strand a live booking. Keep the charge; the
					// pending order is resolved by polling or webhook.
					return nil
				}
				return err
			},
		},
	}

	failedStep, stepErr, compErrs := runSaga(ctx, s.log, steps)
	if stepErr != nil {
		now := time.Now()
		refunded := len(compErrs) == 0
		if refunded {
			pay.Status = entity.PaymentStatusRefunded
			pay.RefundedAt = &now
		} else {
			pay.Status = entity.PaymentStatusManualReview
		}
		pay.UpdatedAt = now
		if err := s.repo.Payment.Update(ctx, pay); err != nil {
			s.log.Error("Failed to record compensation outcome", zap.Error(err),
				zap.String("tran_ref", pay.TransactionID))
		}

		var refundErr error
		if len(compErrs) > 0 {
			refundErr = compErrs[0]
		}
		s.log.Error("Pay-then-book booking failed",
			zap.String("failed_step", failedStep),
			zap.Bool("refunded", refunded),
			zap.Error(stepErr))

		return nil, &PostPaymentBookingError{
			PaymentID:  pay.ID.String(),
			Refunded:   refunded,
			BookingErr: stepErr,
			RefundErr:  refundErr,
		}
	}

	if pending != nil {
		s.log.Warn("Pay-then-book order pending after provider timeout",
			zap.String("tran_ref", pay.TransactionID),
			zap.String("order_number", pending.OrderNumber))
		return nil, pending
	}

	// Attach the payment to the booking it paid for
	order, err := s.repo.FlightOrder.FindByOrderNumber(ctx, created.Order.OrderNumber)
	if err != nil || order == nil {
		return nil, fmt.Errorf("reload booked order: %w", err)
	}

	now := time.Now()
	pay.BookingID = order.BookingID
	pay.UpdatedAt = now
	if err := s.repo.Payment.Update(ctx, pay); err != nil {
		s.log.Error("Failed to attach payment to booking", zap.Error(err))
	}

	if order.BookingID != nil {
		booking, err := s.repo.Booking.FindByID(ctx, *order.BookingID)
		if err == nil && booking != nil {
			booking.PaymentStatus = entity.BookingPaymentPaid
			booking.UpdatedAt = now
			if err := s.repo.Booking.Update(ctx, booking); err != nil {
				s.log.Error("Failed to mark booking paid", zap.Error(err))
			}
		}
	}

	s.ticketOrder(ctx, order)

	s.log.Info("Pay-then-book settled",
		zap.String("tran_ref", pay.TransactionID),
		zap.String("order_number", order.OrderNumber))

	payResp := response.PaymentToResponse(pay)
	orderResp := response.FlightOrderToResponse(order, nil)
	return &response.PaymentCompletionResponse{Payment: payResp, Order: &orderResp}, nil
}

// ticketOrder moves a paid order into ticketed state and emails the ticket
func (s *paymentService) ticketOrder(ctx context.Context, order *entity.FlightOrder) {
	updated, err := s.repo.FlightOrder.UpdateStatusIf(ctx, order.ID,
		entity.OrderStatusTicketed, entity.OrderStatusPending, entity.OrderStatusConfirmed)
	if err != nil {
		s.log.Error("Failed to mark order ticketed", zap.Error(err),
			zap.String("order_number", order.OrderNumber))
		return
	}
	if !updated {
		return
	}

	now := time.Now()
	order.Status = entity.OrderStatusTicketed
	order.TicketingStatus = entity.TicketingIssued
	order.TicketedAt = &now
	order.UpdatedAt = now
	if err := s.repo.FlightOrder.Update(ctx, order); err != nil {
		s.log.Error("Failed to record ticketing details", zap.Error(err),
			zap.String("order_number", order.OrderNumber))
	}

	if err := s.notifier.SendTicketConfirmation(ctx, order); err != nil {
		s.log.Warn("Ticket confirmation email failed", zap.Error(err),
			zap.String("order_number", order.OrderNumber))
	}
}
