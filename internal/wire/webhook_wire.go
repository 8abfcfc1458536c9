package wire

import (
	"travel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireWebhook(r chi.Router, webhookHandler *adaptor.WebhookHandler) {
	// POST /api/webhooks/duffel - Provider event webhook, HMAC-signed
	r.Post("/api/webhooks/duffel", webhookHandler.DuffelWebhook)
}
