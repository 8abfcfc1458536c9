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

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error)
	FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log,
	}
}

const paymentColumns = `
	id, user_id, booking_id, transaction_id, amount, currency,
	payment_method, payment_gateway, status, metadata,
	paid_at, refunded_at, created_at, updated_at, deleted_at
`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.BookingID,
		&payment.TransactionID,
		&payment.Amount,
		&payment.Currency,
		&payment.PaymentMethod,
		&payment.PaymentGateway,
		&payment.Status,
		&payment.Metadata,
		&payment.PaidAt,
		&payment.RefundedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&payment.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (pr *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, booking_id, transaction_id, amount, currency,
		                      payment_method, payment_gateway, status, metadata,
		                      paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := pr.db.Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.BookingID,
		payment.TransactionID,
		payment.Amount,
		payment.Currency,
		payment.PaymentMethod,
		payment.PaymentGateway,
		payment.Status,
		payment.Metadata,
		payment.PaidAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		pr.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("transaction_id", payment.TransactionID),
			zap.String("user_id", payment.UserID.String()),
		)
		return fmt.Errorf("create payment %s: %w", payment.TransactionID, err)
	}

	return nil
}

func (pr *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND deleted_at IS NULL`

	payment, err := scanPayment(pr.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		pr.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (pr *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1 AND deleted_at IS NULL`

	payment, err := scanPayment(pr.db.QueryRow(ctx, query, transactionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		pr.log.Error("Failed to find payment by transaction",
			zap.Error(err),
			zap.String("transaction_id", transactionID),
		)
		return nil, fmt.Errorf("find payment by transaction %s: %w", transactionID, err)
	}

	return payment, nil
}

func (pr *paymentRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := pr.db.Query(ctx, query, bookingID)
	if err != nil {
		pr.log.Error("Failed to list payments",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payments for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

func (pr *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments
		SET booking_id = $2, status = $3, metadata = $4,
		    paid_at = $5, refunded_at = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := pr.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Status,
		payment.Metadata,
		payment.PaidAt,
		payment.RefundedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		pr.log.Error("Failed to update payment",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
		)
		return fmt.Errorf("update payment %s: %w", payment.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found or already deleted", payment.ID.String())
	}

	return nil
}
