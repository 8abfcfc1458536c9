package repository

import (
	"context"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByBookingNumber(ctx context.Context, bookingNumber string) (*entity.Booking, error)
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Update(ctx context.Context, booking *entity.Booking) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log,
	}
}

func (br *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, booking_number, user_id, booking_type, reference_id,
		                      status, payment_status, travel_date, number_of_people,
		                      total_amount, currency, contact_name, contact_email,
		                      contact_phone, notes, confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := br.db.Exec(ctx, query,
		booking.ID,
		booking.BookingNumber,
		booking.UserID,
		booking.BookingType,
		booking.ReferenceID,
		booking.Status,
		booking.PaymentStatus,
		booking.TravelDate,
		booking.NumberOfPeople,
		booking.TotalAmount,
		booking.Currency,
		booking.ContactName,
		booking.ContactEmail,
		booking.ContactPhone,
		booking.Notes,
		booking.ConfirmedAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		br.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_number", booking.BookingNumber),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.BookingNumber, err)
	}

	return nil
}

const bookingColumns = `
	id, booking_number, user_id, booking_type, reference_id,
	status, payment_status, travel_date, number_of_people,
	total_amount, currency, contact_name, contact_email,
	contact_phone, notes, confirmed_at, cancelled_at,
	created_at, updated_at, deleted_at
`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.BookingNumber,
		&booking.UserID,
		&booking.BookingType,
		&booking.ReferenceID,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.TravelDate,
		&booking.NumberOfPeople,
		&booking.TotalAmount,
		&booking.Currency,
		&booking.ContactName,
		&booking.ContactEmail,
		&booking.ContactPhone,
		&booking.Notes,
		&booking.ConfirmedAt,
		&booking.CancelledAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (br *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND deleted_at IS NULL`

	booking, err := scanBooking(br.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		br.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (br *bookingRepository) FindByBookingNumber(ctx context.Context, bookingNumber string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_number = $1 AND deleted_at IS NULL`

	booking, err := scanBooking(br.db.QueryRow(ctx, query, bookingNumber))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		br.log.Error("Failed to find booking by number",
			zap.Error(err),
			zap.String("booking_number", bookingNumber),
		)
		return nil, fmt.Errorf("find booking by number %s: %w", bookingNumber, err)
	}

	return booking, nil
}

func (br *bookingRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := br.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		br.log.Error("Failed to list bookings by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			br.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		br.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (br *bookingRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND deleted_at IS NULL`

	var count int64
	err := br.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		br.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings for user %s: %w", userID.String(), err)
	}

	return count, nil
}

func (br *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET reference_id = $2, status = $3, payment_status = $4,
		    total_amount = $5, currency = $6, notes = $7,
		    confirmed_at = $8, cancelled_at = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := br.db.Exec(ctx, query,
		booking.ID,
		booking.ReferenceID,
		booking.Status,
		booking.PaymentStatus,
		booking.TotalAmount,
		booking.Currency,
		booking.Notes,
		booking.ConfirmedAt,
		booking.CancelledAt,
		booking.UpdatedAt,
	)

	if err != nil {
		br.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found or already deleted", booking.ID.String())
	}

	return nil
}
