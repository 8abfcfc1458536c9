package wire

import (
	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/pkg/idempotency"
	"travel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireFlight(
	r chi.Router,
	flightHandler *adaptor.FlightHandler,
	repo *repository.Repository,
	guard *idempotency.Guard,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/flights/search - Search offers across providers
	r.Get("/api/flights/search", flightHandler.SearchFlights)

	// POST /api/flights/confirm-price - Re-price an offer before checkout
	r.Post("/api/flights/confirm-price", flightHandler.ConfirmPrice)

	// GET /api/flights/locations - Airport and city autocomplete
	r.Get("/api/flights/locations", flightHandler.SearchLocations)

	// POST /api/flights/seat-maps - Seat maps for an offer
	r.Post("/api/flights/seat-maps", flightHandler.SeatMaps)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Idempotency(guard, log))

		// POST /api/flights/create-order - Book an offer (Idempotency-Key honored)
		r.Post("/api/flights/create-order", flightHandler.CreateOrder)

		// GET /api/flights/orders/{orderId} - Order details with segments
		r.Get("/api/flights/orders/{orderId}", flightHandler.GetOrder)

		// DELETE /api/flights/orders/{orderId} - Cancel with the provider
		r.Delete("/api/flights/orders/{orderId}", flightHandler.CancelOrder)

		// GET /api/flights/my-orders - Paginated order history
		r.Get("/api/flights/my-orders", flightHandler.MyOrders)
	})
}
