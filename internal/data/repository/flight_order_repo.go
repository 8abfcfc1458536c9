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

type FlightOrderRepository interface {
	Create(ctx context.Context, order *entity.FlightOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.FlightOrder, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*entity.FlightOrder, error)
	FindByProviderOrderID(ctx context.Context, provider, providerOrderID string) (*entity.FlightOrder, error)
	// FindActiveByUserAndOffer backs the duplicate-order check: one active
	// order per (user, upstream offer). Cancelled and failed orders free
	// the slot.
	FindActiveByUserAndOffer(ctx context.Context, userID uuid.UUID, upstreamOfferID string) (*entity.FlightOrder, error)
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.FlightOrder, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Update(ctx context.Context, order *entity.FlightOrder) error
	// UpdateStatusIf moves an order between statuses only when it is still
	// in one of the expected source states. Returns false when another
	// writer got there first.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, next entity.OrderStatus, expected ...entity.OrderStatus) (bool, error)
}

type flightOrderRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewFlightOrderRepository(db database.PgxIface, log *zap.Logger) FlightOrderRepository {
	return &flightOrderRepository{
		db:  db,
		log: log,
	}
}

const flightOrderColumns = `
	id, order_number, user_id, booking_id, provider, provider_order_id,
	upstream_offer_id, pnr, status, ticketing_status,
	total_amount, base_amount, tax_amount, currency,
	number_of_travelers, contact_email, contact_phone,
	validating_airline, offer_snapshot, schedule_changed,
	ticketed_at, cancelled_at, expires_at,
	created_at, updated_at, deleted_at
`

func scanFlightOrder(row pgx.Row) (*entity.FlightOrder, error) {
	var order entity.FlightOrder
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.BookingID,
		&order.Provider,
		&order.ProviderOrderID,
		&order.UpstreamOfferID,
		&order.PNR,
		&order.Status,
		&order.TicketingStatus,
		&order.TotalAmount,
		&order.BaseAmount,
		&order.TaxAmount,
		&order.Currency,
		&order.NumberOfTravelers,
		&order.ContactEmail,
		&order.ContactPhone,
		&order.ValidatingAirline,
		&order.OfferSnapshot,
		&order.ScheduleChanged,
		&order.TicketedAt,
		&order.CancelledAt,
		&order.ExpiresAt,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (fr *flightOrderRepository) Create(ctx context.Context, order *entity.FlightOrder) error {
	query := `
		INSERT INTO flight_orders (id, order_number, user_id, booking_id, provider,
		                           provider_order_id, upstream_offer_id, pnr, status,
		                           ticketing_status, total_amount, base_amount, tax_amount,
		                           currency, number_of_travelers, contact_email, contact_phone,
		                           validating_airline, offer_snapshot, schedule_changed,
		                           ticketed_at, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := fr.db.Exec(ctx, query,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.BookingID,
		order.Provider,
		order.ProviderOrderID,
		order.UpstreamOfferID,
		order.PNR,
		order.Status,
		order.TicketingStatus,
		order.TotalAmount,
		order.BaseAmount,
		order.TaxAmount,
		order.Currency,
		order.NumberOfTravelers,
		order.ContactEmail,
		order.ContactPhone,
		order.ValidatingAirline,
		order.OfferSnapshot,
		order.ScheduleChanged,
		order.TicketedAt,
		order.ExpiresAt,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		fr.log.Error("Failed to create flight order",
			zap.Error(err),
			zap.String("order_number", order.OrderNumber),
			zap.String("provider", order.Provider),
		)
		return fmt.Errorf("create flight order %s: %w", order.OrderNumber, err)
	}

	return nil
}

func (fr *flightOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.FlightOrder, error) {
	query := `SELECT ` + flightOrderColumns + ` FROM flight_orders WHERE id = $1 AND deleted_at IS NULL`

	order, err := scanFlightOrder(fr.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		fr.log.Error("Failed to find flight order by ID",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return nil, fmt.Errorf("find flight order by ID %s: %w", id.String(), err)
	}

	return order, nil
}

func (fr *flightOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*entity.FlightOrder, error) {
	query := `SELECT ` + flightOrderColumns + ` FROM flight_orders WHERE order_number = $1 AND deleted_at IS NULL`

	order, err := scanFlightOrder(fr.db.QueryRow(ctx, query, orderNumber))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		fr.log.Error("Failed to find flight order by number",
			zap.Error(err),
			zap.String("order_number", orderNumber),
		)
		return nil, fmt.Errorf("find flight order by number %s: %w", orderNumber, err)
	}

	return order, nil
}

func (fr *flightOrderRepository) FindByProviderOrderID(ctx context.Context, provider, providerOrderID string) (*entity.FlightOrder, error) {
	query := `
		SELECT ` + flightOrderColumns + `
		FROM flight_orders
		WHERE provider = $1 AND provider_order_id = $2 AND deleted_at IS NULL
	`

	order, err := scanFlightOrder(fr.db.QueryRow(ctx, query, provider, providerOrderID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		fr.log.Error("Failed to find flight order by provider reference",
			zap.Error(err),
			zap.String("provider", provider),
			zap.String("provider_order_id", providerOrderID),
		)
		return nil, fmt.Errorf("find flight order by provider ID %s: %w", providerOrderID, err)
	}

	return order, nil
}

func (fr *flightOrderRepository) FindActiveByUserAndOffer(ctx context.Context, userID uuid.UUID, upstreamOfferID string) (*entity.FlightOrder, error) {
	query := `
		SELECT ` + flightOrderColumns + `
		FROM flight_orders
		WHERE user_id = $1 AND upstream_offer_id = $2
		  AND status NOT IN ('cancelled', 'failed')
		  AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	order, err := scanFlightOrder(fr.db.QueryRow(ctx, query, userID, upstreamOfferID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		fr.log.Error("Failed duplicate order lookup",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("upstream_offer_id", upstreamOfferID),
		)
		return nil, fmt.Errorf("find active order for offer %s: %w", upstreamOfferID, err)
	}

	return order, nil
}

func (fr *flightOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.FlightOrder, error) {
	query := `
		SELECT ` + flightOrderColumns + `
		FROM flight_orders
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := fr.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		fr.log.Error("Failed to list flight orders",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find flight orders by user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var orders []*entity.FlightOrder
	for rows.Next() {
		order, err := scanFlightOrder(rows)
		if err != nil {
			fr.log.Error("Failed to scan flight order row", zap.Error(err))
			return nil, fmt.Errorf("scan flight order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		fr.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate flight order rows: %w", err)
	}

	return orders, nil
}

func (fr *flightOrderRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM flight_orders WHERE user_id = $1 AND deleted_at IS NULL`

	var count int64
	err := fr.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		fr.log.Error("Failed to count flight orders", zap.Error(err))
		return 0, fmt.Errorf("count flight orders for user %s: %w", userID.String(), err)
	}

	return count, nil
}

func (fr *flightOrderRepository) Update(ctx context.Context, order *entity.FlightOrder) error {
	query := `
		UPDATE flight_orders
		SET booking_id = $2, provider_order_id = $3, pnr = $4, status = $5,
		    ticketing_status = $6, total_amount = $7, base_amount = $8,
		    tax_amount = $9, currency = $10, offer_snapshot = $11,
		    schedule_changed = $12, ticketed_at = $13, cancelled_at = $14,
		    expires_at = $15, updated_at = $16
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := fr.db.Exec(ctx, query,
		order.ID,
		order.BookingID,
		order.ProviderOrderID,
		order.PNR,
		order.Status,
		order.TicketingStatus,
		order.TotalAmount,
		order.BaseAmount,
		order.TaxAmount,
		order.Currency,
		order.OfferSnapshot,
		order.ScheduleChanged,
		order.TicketedAt,
		order.CancelledAt,
		order.ExpiresAt,
		order.UpdatedAt,
	)

	if err != nil {
		fr.log.Error("Failed to update flight order",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
		)
		return fmt.Errorf("update flight order %s: %w", order.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("flight order %s not found or already deleted", order.ID.String())
	}

	return nil
}

func (fr *flightOrderRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, next entity.OrderStatus, expected ...entity.OrderStatus) (bool, error) {
	if len(expected) == 0 {
		return false, fmt.Errorf("update status of order %s: no expected states given", id.String())
	}

	states := make([]string, 0, len(expected))
	for _, s := range expected {
		states = append(states, string(s))
	}

	query := `
		UPDATE flight_orders
		SET status = $2,
		    cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    updated_at = NOW()
		WHERE id = $1 AND status = ANY($3) AND deleted_at IS NULL
	`

	result, err := fr.db.Exec(ctx, query, id, next, states)
	if err != nil {
		fr.log.Error("Failed conditional status update",
			zap.Error(err),
			zap.String("order_id", id.String()),
			zap.String("next_status", string(next)),
		)
		return false, fmt.Errorf("update status of order %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
