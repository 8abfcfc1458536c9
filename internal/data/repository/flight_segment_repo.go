package repository

import (
	"context"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FlightSegmentRepository interface {
	CreateBatch(ctx context.Context, segments []*entity.FlightSegment) error
	FindByOrder(ctx context.Context, flightOrderID uuid.UUID) ([]*entity.FlightSegment, error)
	// ReplaceForOrder swaps an order's segments for the new itinerary a
	// schedule-change event carried.
	ReplaceForOrder(ctx context.Context, flightOrderID uuid.UUID, segments []*entity.FlightSegment) error
}

type flightSegmentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewFlightSegmentRepository(db database.PgxIface, log *zap.Logger) FlightSegmentRepository {
	return &flightSegmentRepository{
		db:  db,
		log: log,
	}
}

const insertSegmentQuery = `
	INSERT INTO flight_segments (id, flight_order_id, segment_number,
	                             departure_airport, departure_terminal, departure_time,
	                             arrival_airport, arrival_terminal, arrival_time,
	                             marketing_carrier, marketing_flight_number,
	                             operating_carrier, operating_flight_number,
	                             cabin_class, checked_bags_allowed, duration_minutes,
	                             created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`

func (sr *flightSegmentRepository) insert(ctx context.Context, segment *entity.FlightSegment) error {
	_, err := sr.db.Exec(ctx, insertSegmentQuery,
		segment.ID,
		segment.FlightOrderID,
		segment.SegmentNumber,
		segment.DepartureAirport,
		segment.DepartureTerminal,
		segment.DepartureTime,
		segment.ArrivalAirport,
		segment.ArrivalTerminal,
		segment.ArrivalTime,
		segment.MarketingCarrier,
		segment.MarketingFlightNo,
		segment.OperatingCarrier,
		segment.OperatingFlightNo,
		segment.CabinClass,
		segment.CheckedBagsAllowed,
		segment.DurationMinutes,
		segment.CreatedAt,
	)
	return err
}

func (sr *flightSegmentRepository) CreateBatch(ctx context.Context, segments []*entity.FlightSegment) error {
	for _, segment := range segments {
		if err := sr.insert(ctx, segment); err != nil {
			sr.log.Error("Failed to create flight segment",
				zap.Error(err),
				zap.String("flight_order_id", segment.FlightOrderID.String()),
				zap.Int("segment_number", segment.SegmentNumber),
			)
			return fmt.Errorf("create segment %d for order %s: %w",
				segment.SegmentNumber, segment.FlightOrderID.String(), err)
		}
	}
	return nil
}

func (sr *flightSegmentRepository) FindByOrder(ctx context.Context, flightOrderID uuid.UUID) ([]*entity.FlightSegment, error) {
	query := `
		SELECT id, flight_order_id, segment_number,
		       departure_airport, departure_terminal, departure_time,
		       arrival_airport, arrival_terminal, arrival_time,
		       marketing_carrier, marketing_flight_number,
		       operating_carrier, operating_flight_number,
		       cabin_class, checked_bags_allowed, duration_minutes, created_at
		FROM flight_segments
		WHERE flight_order_id = $1
		ORDER BY segment_number ASC
	`

	rows, err := sr.db.Query(ctx, query, flightOrderID)
	if err != nil {
		sr.log.Error("Failed to list flight segments",
			zap.Error(err),
			zap.String("flight_order_id", flightOrderID.String()),
		)
		return nil, fmt.Errorf("find segments for order %s: %w", flightOrderID.String(), err)
	}
	defer rows.Close()

	var segments []*entity.FlightSegment
	for rows.Next() {
		var segment entity.FlightSegment
		err := rows.Scan(
			&segment.ID,
			&segment.FlightOrderID,
			&segment.SegmentNumber,
			&segment.DepartureAirport,
			&segment.DepartureTerminal,
			&segment.DepartureTime,
			&segment.ArrivalAirport,
			&segment.ArrivalTerminal,
			&segment.ArrivalTime,
			&segment.MarketingCarrier,
			&segment.MarketingFlightNo,
			&segment.OperatingCarrier,
			&segment.OperatingFlightNo,
			&segment.CabinClass,
			&segment.CheckedBagsAllowed,
			&segment.DurationMinutes,
			&segment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan flight segment row: %w", err)
		}
		segments = append(segments, &segment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flight segment rows: %w", err)
	}

	return segments, nil
}

func (sr *flightSegmentRepository) ReplaceForOrder(ctx context.Context, flightOrderID uuid.UUID, segments []*entity.FlightSegment) error {
	deleteQuery := `DELETE FROM flight_segments WHERE flight_order_id = $1`
	if _, err := sr.db.Exec(ctx, deleteQuery, flightOrderID); err != nil {
		sr.log.Error("Failed to clear flight segments",
			zap.Error(err),
			zap.String("flight_order_id", flightOrderID.String()),
		)
		return fmt.Errorf("clear segments for order %s: %w", flightOrderID.String(), err)
	}

	return sr.CreateBatch(ctx, segments)
}
