package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"travel-booking/internal/dto/request"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// BookAndPay handles POST /api/payments/paytabs/book-and-pay (protected)
func (h *PaymentHandler) BookAndPay(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.BookAndPayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.BookAndPay(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "book and pay")
		return
	}

	utils.ResponseCreated(w, "success", result)
}

// PayThenBook handles POST /api/payments/paytabs/pay-then-book (protected)
func (h *PaymentHandler) PayThenBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.PayThenBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.PayThenBook(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "pay then book")
		return
	}

	utils.ResponseCreated(w, "success", result)
}

// PayTabsCallback handles POST /api/payments/paytabs/callback. PayTabs posts
// either JSON or a form depending on profile settings; both carry tran_ref.
func (h *PaymentHandler) PayTabsCallback(w http.ResponseWriter, r *http.Request) {
	tranRef := h.extractTranRef(r)
	if tranRef == "" {
		utils.ResponseBadRequest(w, "tran_ref is required", nil)
		return
	}

	result, err := h.service.HandlePayTabsCallback(r.Context(), tranRef)
	if err != nil {
		h.handleServiceError(w, err, "payment callback")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

func (h *PaymentHandler) extractTranRef(r *http.Request) string {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var req request.PayTabsCallbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return ""
		}
		return req.TranRef
	}

	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostFormValue("tranRef")
}

func (h *PaymentHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	var postErr *usecase.PostPaymentBookingError

	switch {
	case errors.Is(err, usecase.ErrPaymentFailed):
		h.log.Warn(operation + " - payment declined")
		utils.ResponsePaymentRequired(w, "Payment was not approved")

	case errors.As(err, &postErr):
		h.log.Error(operation+" - booking failed after capture",
			zap.String("payment_id", postErr.PaymentID),
			zap.Bool("refunded", postErr.Refunded),
			zap.Error(err))
		utils.ResponseJSON(w, http.StatusConflict, false, err.Error(),
			map[string]any{
				"payment_id": postErr.PaymentID,
				"refunded":   postErr.Refunded,
			}, nil)

	default:
		writeFlightError(w, h.log, err, operation)
	}
}
