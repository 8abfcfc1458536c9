package adaptor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type WebhookHandler struct {
	service usecase.WebhookService
	secret  string
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.WebhookService, secret string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		secret:  secret,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// DuffelWebhook handles POST /api/webhooks/duffel
func (h *WebhookHandler) DuffelWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.ResponseBadRequest(w, "Unable to read request body", nil)
		return
	}

	if !h.verifySignature(r.Header.Get("X-Duffel-Signature"), body) {
		h.log.Warn("Webhook signature rejected",
			zap.String("remote_addr", r.RemoteAddr))
		utils.ResponseUnauthorized(w, "Invalid signature")
		return
	}

	if err := h.service.HandleDuffelEvent(r.Context(), body); err != nil {
		h.log.Error("Webhook processing failed", zap.Error(err))
		// non-2xx makes Duffel redeliver, which is what we want on failure
		utils.ResponseInternalError(w, "Event processing failed")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// verifySignature checks the HMAC-SHA256 header, format "t=...,v1=<hex>"
func (h *WebhookHandler) verifySignature(header string, body []byte) bool {
	if h.secret == "" {
		// unsigned setups (local dev) accept everything
		return true
	}
	if header == "" {
		return false
	}

	var timestamp, received string
	for _, part := range strings.Split(header, ",") {
		switch {
		case strings.HasPrefix(part, "t="):
			timestamp = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			received = strings.TrimPrefix(part, "v1=")
		}
	}
	if received == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	if timestamp != "" {
		mac.Write([]byte(timestamp))
		mac.Write([]byte("."))
	}
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(received))
}
