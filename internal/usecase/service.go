package usecase

import (
	"travel-booking/internal/data/repository"
	"travel-booking/internal/email"
	"travel-booking/internal/payment"
	"travel-booking/internal/provider"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	Flight  FlightService
	Payment PaymentService
	Webhook WebhookService
}

func NewService(
	repo *repository.Repository,
	router *provider.Router,
	gateway payment.Gateway,
	notifier email.Notifier,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	flights := NewFlightService(repo, router, notifier, config, log)
	return &Service{
		Auth:    NewAuthService(repo, config, log),
		Flight:  flights,
		Payment: NewPaymentService(repo, flights, gateway, notifier, config, log),
		Webhook: NewWebhookService(repo, flights, notifier, log),
	}
}
