package wire

import (
	"net/http"

	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/email"
	"travel-booking/internal/payment"
	"travel-booking/internal/provider"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/idempotency"
	"travel-booking/pkg/middleware"
	"travel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the assembled application
type App struct {
	Router *chi.Mux
}

// Wiring initializes every dependency and returns the ready-to-serve app
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	// Flight providers behind one router
	amadeus := provider.NewAmadeusClient(config.Amadeus, logger)
	duffel := provider.NewDuffelClient(config.Duffel, logger)
	router := provider.NewRouter(
		provider.Provider(config.Flights.DefaultProvider),
		logger, amadeus, duffel)

	gateway := payment.NewPayTabsGateway(config.PayTabs, logger)
	notifier := email.NewSMTPNotifier(config.Email, logger)

	service := usecase.NewService(repo, router, gateway, notifier, config, logger)
	handler := adaptor.NewHandler(service, config, logger)

	guard := idempotency.NewGuard(config.Idempotency.TTL, config.Idempotency.PurgeAge)

	mux := setupRouter(handler, repo, guard, config, logger)

	return &App{
		Router: mux,
	}
}

// setupRouter configures the chi router
func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	guard *idempotency.Guard,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireAuth(r, handler.Auth, repo, logger)
	wireFlight(r, handler.Flight, repo, guard, logger)
	wirePayment(r, handler.Payment, repo, guard, logger)
	wireWebhook(r, handler.Webhook)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
