package usecase

import (
	"context"
	"encoding/json"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/internal/payment"
	"travel-booking/internal/provider"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ==================== REPOSITORY MOCKS ====================

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *MockUserRepo) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockSessionRepo) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockSessionRepo) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockSessionRepo) CleanExpiredSessions(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Booking), args.Error(1)
}

func (m *MockBookingRepo) FindByBookingNumber(ctx context.Context, bookingNumber string) (*entity.Booking, error) {
	args := m.Called(ctx, bookingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Booking), args.Error(1)
}

func (m *MockBookingRepo) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Booking), args.Error(1)
}

func (m *MockBookingRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

type MockFlightOrderRepo struct {
	mock.Mock
}

func (m *MockFlightOrderRepo) Create(ctx context.Context, order *entity.FlightOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockFlightOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.FlightOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FlightOrder), args.Error(1)
}

func (m *MockFlightOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*entity.FlightOrder, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FlightOrder), args.Error(1)
}

func (m *MockFlightOrderRepo) FindByProviderOrderID(ctx context.Context, providerName, providerOrderID string) (*entity.FlightOrder, error) {
	args := m.Called(ctx, providerName, providerOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FlightOrder), args.Error(1)
}

func (m *MockFlightOrderRepo) FindActiveByUserAndOffer(ctx context.Context, userID uuid.UUID, upstreamOfferID string) (*entity.FlightOrder, error) {
	args := m.Called(ctx, userID, upstreamOfferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FlightOrder), args.Error(1)
}

func (m *MockFlightOrderRepo) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.FlightOrder, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FlightOrder), args.Error(1)
}

func (m *MockFlightOrderRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFlightOrderRepo) Update(ctx context.Context, order *entity.FlightOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockFlightOrderRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, next entity.OrderStatus, expected ...entity.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, next, expected)
	return args.Bool(0), args.Error(1)
}

type MockTravelerRepo struct {
	mock.Mock
}

func (m *MockTravelerRepo) Create(ctx context.Context, traveler *entity.Traveler) error {
	return m.Called(ctx, traveler).Error(0)
}

func (m *MockTravelerRepo) CreateDocument(ctx context.Context, document *entity.TravelerDocument) error {
	return m.Called(ctx, document).Error(0)
}

func (m *MockTravelerRepo) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*entity.Traveler, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Traveler), args.Error(1)
}

func (m *MockTravelerRepo) FindDocumentsByTraveler(ctx context.Context, travelerID uuid.UUID) ([]*entity.TravelerDocument, error) {
	args := m.Called(ctx, travelerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.TravelerDocument), args.Error(1)
}

type MockSegmentRepo struct {
	mock.Mock
}

func (m *MockSegmentRepo) CreateBatch(ctx context.Context, segments []*entity.FlightSegment) error {
	return m.Called(ctx, segments).Error(0)
}

func (m *MockSegmentRepo) FindByOrder(ctx context.Context, flightOrderID uuid.UUID) ([]*entity.FlightSegment, error) {
	args := m.Called(ctx, flightOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FlightSegment), args.Error(1)
}

func (m *MockSegmentRepo) ReplaceForOrder(ctx context.Context, flightOrderID uuid.UUID, segments []*entity.FlightSegment) error {
	return m.Called(ctx, flightOrderID, segments).Error(0)
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, pay *entity.Payment) error {
	return m.Called(ctx, pay).Error(0)
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentRepo) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Payment), args.Error(1)
}

func (m *MockPaymentRepo) Update(ctx context.Context, pay *entity.Payment) error {
	return m.Called(ctx, pay).Error(0)
}

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockAuditRepo) FindByEntity(ctx context.Context, entityName, entityID string, limit int) ([]*entity.AuditLog, error) {
	args := m.Called(ctx, entityName, entityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.AuditLog), args.Error(1)
}

// ==================== PROVIDER / GATEWAY / EMAIL MOCKS ====================

type MockProviderClient struct {
	mock.Mock
	name provider.Provider
}

func (m *MockProviderClient) Name() provider.Provider { return m.name }

func (m *MockProviderClient) Search(ctx context.Context, criteria provider.SearchCriteria) ([]provider.FlightOffer, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.FlightOffer), args.Error(1)
}

func (m *MockProviderClient) Reprice(ctx context.Context, offer provider.FlightOffer) (*provider.FlightOffer, error) {
	args := m.Called(ctx, offer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.FlightOffer), args.Error(1)
}

func (m *MockProviderClient) CreateOrder(ctx context.Context, input provider.OrderInput) (*provider.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Order), args.Error(1)
}

func (m *MockProviderClient) GetOrder(ctx context.Context, providerOrderID string) (*provider.Order, error) {
	args := m.Called(ctx, providerOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Order), args.Error(1)
}

func (m *MockProviderClient) CancelOrder(ctx context.Context, providerOrderID string) (*provider.CancellationResult, error) {
	args := m.Called(ctx, providerOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CancellationResult), args.Error(1)
}

func (m *MockProviderClient) SearchLocations(ctx context.Context, keyword string) ([]provider.Place, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Place), args.Error(1)
}

func (m *MockProviderClient) GetSeatMaps(ctx context.Context, offer provider.FlightOffer) (json.RawMessage, error) {
	args := m.Called(ctx, offer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateChargePage(ctx context.Context, input payment.ChargePageInput) (*payment.ChargePage, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargePage), args.Error(1)
}

func (m *MockGateway) VerifyPayment(ctx context.Context, transactionRef string) (*payment.VerificationResult, error) {
	args := m.Called(ctx, transactionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.VerificationResult), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, transactionRef, cartID string, amount decimal.Decimal, currency, reason string) (*payment.RefundResult, error) {
	args := m.Called(ctx, transactionRef, cartID, amount, currency, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

type MockFlightService struct {
	mock.Mock
}

func (m *MockFlightService) Search(ctx context.Context, req *request.SearchFlightsRequest) (*response.SearchFlightsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.SearchFlightsResponse), args.Error(1)
}

func (m *MockFlightService) ConfirmPrice(ctx context.Context, req *request.ConfirmPriceRequest) (*response.ConfirmPriceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.ConfirmPriceResponse), args.Error(1)
}

func (m *MockFlightService) CreateOrder(ctx context.Context, userID uuid.UUID, req *request.CreateFlightOrderRequest) (*response.CreateOrderResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.CreateOrderResponse), args.Error(1)
}

func (m *MockFlightService) GetOrder(ctx context.Context, userID uuid.UUID, orderRef string) (*response.FlightOrderResponse, error) {
	args := m.Called(ctx, userID, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.FlightOrderResponse), args.Error(1)
}

func (m *MockFlightService) CancelOrder(ctx context.Context, userID uuid.UUID, orderRef string) (*response.CancellationResponse, error) {
	args := m.Called(ctx, userID, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.CancellationResponse), args.Error(1)
}

func (m *MockFlightService) MyOrders(ctx context.Context, userID uuid.UUID, page, perPage int) ([]response.FlightOrderResponse, *response.PaginationMeta, error) {
	args := m.Called(ctx, userID, page, perPage)
	var items []response.FlightOrderResponse
	if args.Get(0) != nil {
		items = args.Get(0).([]response.FlightOrderResponse)
	}
	var meta *response.PaginationMeta
	if args.Get(1) != nil {
		meta = args.Get(1).(*response.PaginationMeta)
	}
	return items, meta, args.Error(2)
}

func (m *MockFlightService) SearchLocations(ctx context.Context, providerName, keyword string) ([]provider.Place, error) {
	args := m.Called(ctx, providerName, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Place), args.Error(1)
}

func (m *MockFlightService) SeatMaps(ctx context.Context, req *request.SeatMapsRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendTicketConfirmation(ctx context.Context, order *entity.FlightOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockNotifier) SendScheduleChangeNotice(ctx context.Context, order *entity.FlightOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockNotifier) SendCancellationNotice(ctx context.Context, order *entity.FlightOrder) error {
	return m.Called(ctx, order).Error(0)
}

// ==================== FIXTURES ====================

type serviceFixture struct {
	repo         *repository.Repository
	users        *MockUserRepo
	sessions     *MockSessionRepo
	bookings     *MockBookingRepo
	flightOrders *MockFlightOrderRepo
	travelers    *MockTravelerRepo
	segments     *MockSegmentRepo
	payments     *MockPaymentRepo
	audits       *MockAuditRepo
	client       *MockProviderClient
	gateway      *MockGateway
	notifier     *MockNotifier
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		users:        &MockUserRepo{},
		sessions:     &MockSessionRepo{},
		bookings:     &MockBookingRepo{},
		flightOrders: &MockFlightOrderRepo{},
		travelers:    &MockTravelerRepo{},
		segments:     &MockSegmentRepo{},
		payments:     &MockPaymentRepo{},
		audits:       &MockAuditRepo{},
		client:       &MockProviderClient{name: provider.ProviderDuffel},
		gateway:      &MockGateway{},
		notifier:     &MockNotifier{},
	}
	f.repo = &repository.Repository{
		User:          f.users,
		Session:       f.sessions,
		Booking:       f.bookings,
		FlightOrder:   f.flightOrders,
		Traveler:      f.travelers,
		FlightSegment: f.segments,
		Payment:       f.payments,
		AuditLog:      f.audits,
	}
	return f
}
