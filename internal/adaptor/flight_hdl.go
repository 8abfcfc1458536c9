package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/internal/provider"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FlightHandler struct {
	service usecase.FlightService
	log     *zap.Logger
}

func NewFlightHandler(service usecase.FlightService, log *zap.Logger) *FlightHandler {
	return &FlightHandler{
		service: service,
		log:     log.With(zap.String("handler", "flight")),
	}
}

// SearchFlights handles GET /api/flights/search
func (h *FlightHandler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.SearchFlightsRequest{
		Origin:        query.Get("origin"),
		Destination:   query.Get("destination"),
		DepartureDate: query.Get("departure_date"),
		ReturnDate:    query.Get("return_date"),
		Adults:        utils.ParseInt(query.Get("adults"), 1),
		Children:      utils.ParseInt(query.Get("children"), 0),
		Infants:       utils.ParseInt(query.Get("infants"), 0),
		TravelClass:   query.Get("travel_class"),
		NonStop:       query.Get("non_stop") == "true",
		CurrencyCode:  query.Get("currency_code"),
		Provider:      query.Get("provider"),
		MaxResults:    utils.ParseInt(query.Get("max_results"), 0),
	}
	if req.Provider == "" {
		req.Provider = "all"
	}

	result, err := h.service.Search(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "search flights")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// ConfirmPrice handles POST /api/flights/confirm-price
func (h *FlightHandler) ConfirmPrice(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.ConfirmPrice(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "confirm price")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// CreateOrder handles POST /api/flights/create-order (protected)
func (h *FlightHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateFlightOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "create order")
		return
	}

	utils.ResponseCreated(w, "success", result)
}

// GetOrder handles GET /api/flights/orders/{orderId} (protected)
func (h *FlightHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	orderRef := chi.URLParam(r, "orderId")
	if orderRef == "" {
		utils.ResponseBadRequest(w, "Order ID is required", nil)
		return
	}

	result, err := h.service.GetOrder(r.Context(), userID, orderRef)
	if err != nil {
		h.handleServiceError(w, err, "get order")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// CancelOrder handles DELETE /api/flights/orders/{orderId} (protected)
func (h *FlightHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	orderRef := chi.URLParam(r, "orderId")
	if orderRef == "" {
		utils.ResponseBadRequest(w, "Order ID is required", nil)
		return
	}

	result, err := h.service.CancelOrder(r.Context(), userID, orderRef)
	if err != nil {
		h.handleServiceError(w, err, "cancel order")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// MyOrders handles GET /api/flights/my-orders (protected)
func (h *FlightHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1)
	perPage := utils.ParseInt(query.Get("per_page"), 10)

	items, meta, err := h.service.MyOrders(r.Context(), userID, page, perPage)
	if err != nil {
		h.handleServiceError(w, err, "list orders")
		return
	}

	utils.ResponseSuccess(w, "success", response.PaginatedResponse[response.FlightOrderResponse]{
		Data:       items,
		Pagination: *meta,
	})
}

// SearchLocations handles GET /api/flights/locations
func (h *FlightHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	keyword := query.Get("keyword")
	providerName := query.Get("provider")

	places, err := h.service.SearchLocations(r.Context(), providerName, keyword)
	if err != nil {
		h.handleServiceError(w, err, "search locations")
		return
	}

	utils.ResponseSuccess(w, "success", places)
}

// SeatMaps handles POST /api/flights/seat-maps
func (h *FlightHandler) SeatMaps(w http.ResponseWriter, r *http.Request) {
	var req request.SeatMapsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	maps, err := h.service.SeatMaps(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "seat maps")
		return
	}

	utils.ResponseSuccess(w, "success", maps)
}

func (h *FlightHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	writeFlightError(w, h.log, err, operation)
}

// writeFlightError maps booking-domain errors to HTTP codes. Shared with the
// payment handler, which surfaces the same errors when it books.
func writeFlightError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var vErr *usecase.ValidationError
	var dupErr *usecase.DuplicateOrderError
	var pendingErr *usecase.TimeoutPendingError
	var provErr *provider.Error

	switch {
	case errors.As(err, &vErr):
		log.Warn(operation+" validation failed", zap.Any("fields", vErr.Fields))
		utils.ResponseBadRequest(w, "Validation failed", vErr.Fields)

	case errors.As(err, &dupErr):
		// the existing order comes back as a success, flagged as duplicate
		log.Info(operation+" returned existing order",
			zap.String("order_number", dupErr.Order.OrderNumber))
		utils.ResponseSuccess(w, "An active order already exists for this offer",
			response.CreateOrderResponse{
				Order:     response.FlightOrderToResponse(dupErr.Order, nil),
				Duplicate: true,
			})

	case errors.As(err, &pendingErr):
		log.Warn(operation+" still in flight",
			zap.String("order_number", pendingErr.OrderNumber))
		utils.ResponseAccepted(w, err.Error(),
			map[string]string{"order_number": pendingErr.OrderNumber})

	case errors.Is(err, usecase.ErrOfferExpired):
		log.Warn(operation + " rejected - offer expired")
		utils.ResponseJSON(w, http.StatusConflict, false, err.Error(), nil, nil)

	case errors.Is(err, usecase.ErrAlreadyCancelled),
		errors.Is(err, usecase.ErrOrderNotActionable):
		log.Warn(operation+" rejected - order state", zap.Error(err))
		utils.ResponseJSON(w, http.StatusConflict, false, err.Error(), nil, nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation + " failed - not found")
		utils.ResponseNotFound(w, "Order not found")

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation + " failed - not the owner")
		utils.ResponseForbidden(w, "You do not have access to this order")

	case errors.Is(err, usecase.ErrUnauthorized):
		utils.ResponseUnauthorized(w, "Authentication required")

	case errors.As(err, &provErr):
		log.Error(operation+" failed upstream",
			zap.String("provider", string(provErr.Provider)),
			zap.String("kind", string(provErr.Kind)),
			zap.Error(err))
		if provErr.Kind == provider.ErrInvalidRequest {
			utils.ResponseBadRequest(w, provErr.Detail, nil)
			return
		}
		utils.ResponseBadGateway(w, "Flight provider is unavailable, please try again")

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
