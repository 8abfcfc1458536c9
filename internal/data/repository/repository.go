package repository

import (
	"travel-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User          UserRepository
	Session       SessionRepository
	Booking       BookingRepository
	FlightOrder   FlightOrderRepository
	Traveler      TravelerRepository
	FlightSegment FlightSegmentRepository
	Payment       PaymentRepository
	AuditLog      AuditLogRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:          NewUserRepository(db, log),
		Session:       NewSessionRepository(db, log),
		Booking:       NewBookingRepository(db, log),
		FlightOrder:   NewFlightOrderRepository(db, log),
		Traveler:      NewTravelerRepository(db, log),
		FlightSegment: NewFlightSegmentRepository(db, log),
		Payment:       NewPaymentRepository(db, log),
		AuditLog:      NewAuditLogRepository(db, log),
	}
}
