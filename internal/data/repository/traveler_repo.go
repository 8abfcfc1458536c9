package repository

import (
	"context"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TravelerRepository interface {
	Create(ctx context.Context, traveler *entity.Traveler) error
	CreateDocument(ctx context.Context, document *entity.TravelerDocument) error
	FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*entity.Traveler, error)
	FindDocumentsByTraveler(ctx context.Context, travelerID uuid.UUID) ([]*entity.TravelerDocument, error)
}

type travelerRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTravelerRepository(db database.PgxIface, log *zap.Logger) TravelerRepository {
	return &travelerRepository{
		db:  db,
		log: log,
	}
}

func (tr *travelerRepository) Create(ctx context.Context, traveler *entity.Traveler) error {
	query := `
		INSERT INTO travelers (id, booking_id, first_name, last_name, title, gender,
		                       date_of_birth, email, phone_country_code, phone_number,
		                       nationality, passenger_type, provider_passenger_id,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := tr.db.Exec(ctx, query,
		traveler.ID,
		traveler.BookingID,
		traveler.FirstName,
		traveler.LastName,
		traveler.Title,
		traveler.Gender,
		traveler.DateOfBirth,
		traveler.Email,
		traveler.PhoneCountryCode,
		traveler.PhoneNumber,
		traveler.Nationality,
		traveler.PassengerType,
		traveler.ProviderPassengerID,
		traveler.CreatedAt,
		traveler.UpdatedAt,
	)

	if err != nil {
		tr.log.Error("Failed to create traveler",
			zap.Error(err),
			zap.String("booking_id", traveler.BookingID.String()),
		)
		return fmt.Errorf("create traveler for booking %s: %w", traveler.BookingID.String(), err)
	}

	return nil
}

func (tr *travelerRepository) CreateDocument(ctx context.Context, document *entity.TravelerDocument) error {
	query := `
		INSERT INTO traveler_documents (id, traveler_id, document_type, document_number,
		                                issuing_country, nationality, issue_date, expiry_date,
		                                created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tr.db.Exec(ctx, query,
		document.ID,
		document.TravelerID,
		document.DocumentType,
		document.DocumentNumber,
		document.IssuingCountry,
		document.Nationality,
		document.IssueDate,
		document.ExpiryDate,
		document.CreatedAt,
	)

	if err != nil {
		tr.log.Error("Failed to create traveler document",
			zap.Error(err),
			zap.String("traveler_id", document.TravelerID.String()),
		)
		return fmt.Errorf("create document for traveler %s: %w", document.TravelerID.String(), err)
	}

	return nil
}

func (tr *travelerRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*entity.Traveler, error) {
	query := `
		SELECT id, booking_id, first_name, last_name, title, gender,
		       date_of_birth, email, phone_country_code, phone_number,
		       nationality, passenger_type, provider_passenger_id,
		       created_at, updated_at, deleted_at
		FROM travelers
		WHERE booking_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`

	rows, err := tr.db.Query(ctx, query, bookingID)
	if err != nil {
		tr.log.Error("Failed to list travelers",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find travelers for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var travelers []*entity.Traveler
	for rows.Next() {
		var traveler entity.Traveler
		err := rows.Scan(
			&traveler.ID,
			&traveler.BookingID,
			&traveler.FirstName,
			&traveler.LastName,
			&traveler.Title,
			&traveler.Gender,
			&traveler.DateOfBirth,
			&traveler.Email,
			&traveler.PhoneCountryCode,
			&traveler.PhoneNumber,
			&traveler.Nationality,
			&traveler.PassengerType,
			&traveler.ProviderPassengerID,
			&traveler.CreatedAt,
			&traveler.UpdatedAt,
			&traveler.DeletedAt,
		)
		if err != nil {
			tr.log.Error("Failed to scan traveler row", zap.Error(err))
			return nil, fmt.Errorf("scan traveler row: %w", err)
		}
		travelers = append(travelers, &traveler)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traveler rows: %w", err)
	}

	return travelers, nil
}

func (tr *travelerRepository) FindDocumentsByTraveler(ctx context.Context, travelerID uuid.UUID) ([]*entity.TravelerDocument, error) {
	query := `
		SELECT id, traveler_id, document_type, document_number,
		       issuing_country, nationality, issue_date, expiry_date, created_at
		FROM traveler_documents
		WHERE traveler_id = $1
		ORDER BY created_at ASC
	`

	rows, err := tr.db.Query(ctx, query, travelerID)
	if err != nil {
		tr.log.Error("Failed to list traveler documents",
			zap.Error(err),
			zap.String("traveler_id", travelerID.String()),
		)
		return nil, fmt.Errorf("find documents for traveler %s: %w", travelerID.String(), err)
	}
	defer rows.Close()

	var documents []*entity.TravelerDocument
	for rows.Next() {
		var document entity.TravelerDocument
		err := rows.Scan(
			&document.ID,
			&document.TravelerID,
			&document.DocumentType,
			&document.DocumentNumber,
			&document.IssuingCountry,
			&document.Nationality,
			&document.IssueDate,
			&document.ExpiryDate,
			&document.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan traveler document row: %w", err)
		}
		documents = append(documents, &document)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traveler document rows: %w", err)
	}

	return documents, nil
}
