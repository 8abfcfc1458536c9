package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

// DuffelClient talks to the Duffel REST API (modern content aggregator).
type DuffelClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewDuffelClient(config utils.DuffelConfig, log *zap.Logger) *DuffelClient {
	return &DuffelClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: &http.Client{},
		log:        log.With(zap.String("provider", "duffel")),
	}
}

func (c *DuffelClient) Name() Provider {
	return ProviderDuffel
}

func (c *DuffelClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Duffel-Version", "v2")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Provider: ProviderDuffel, Kind: ErrUpstreamUnavailable, Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.mapError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *DuffelClient) mapError(status int, body []byte) error {
	var errResp struct {
		Errors []struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Title   string `json:"title"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	detail := string(body)
	code := ""
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Errors) > 0 {
		first := errResp.Errors[0]
		code = first.Code
		if first.Message != "" {
			detail = first.Message
		} else {
			detail = first.Title
		}
	}

	kind := ErrInvalidRequest
	lower := strings.ToLower(detail)
	switch {
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status >= 500:
		kind = ErrUpstreamUnavailable
	case strings.Contains(code, "expired"),
		strings.Contains(lower, "expired"),
		strings.Contains(lower, "no longer available"):
		kind = ErrOfferExpired
	}

	c.log.Warn("Upstream error",
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("kind", string(kind)),
		zap.String("detail", detail))

	return &Error{Provider: ProviderDuffel, Kind: kind, Detail: detail}
}

// ==================== RAW SHAPES ====================

type duffelSlice struct {
	Duration string `json:"duration"`
	Segments []struct {
		ID     string `json:"id"`
		Origin struct {
			IataCode string `json:"iata_code"`
			CityName string `json:"city_name"`
		} `json:"origin"`
		Destination struct {
			IataCode string `json:"iata_code"`
			CityName string `json:"city_name"`
		} `json:"destination"`
		DepartingAt      string `json:"departing_at"`
		ArrivingAt       string `json:"arriving_at"`
		MarketingCarrier struct {
			IataCode string `json:"iata_code"`
			Name     string `json:"name"`
		} `json:"marketing_carrier"`
		MarketingCarrierFlightNumber string `json:"marketing_carrier_flight_number"`
		OperatingCarrier             struct {
			IataCode string `json:"iata_code"`
		} `json:"operating_carrier"`
		Duration   string `json:"duration"`
		Passengers []struct {
			CabinClass string `json:"cabin_class"`
			Baggages   []struct {
				Type     string `json:"type"`
				Quantity int    `json:"quantity"`
			} `json:"baggages"`
		} `json:"passengers"`
	} `json:"segments"`
}

type duffelOffer struct {
	ID            string `json:"id"`
	TotalAmount   string `json:"total_amount"`
	TotalCurrency string `json:"total_currency"`
	BaseAmount    string `json:"base_amount"`
	TaxAmount     string `json:"tax_amount"`
	ExpiresAt     string `json:"expires_at"`
	Owner         struct {
		IataCode string `json:"iata_code"`
		Name     string `json:"name"`
	} `json:"owner"`
	Passengers []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"passengers"`
	Slices []duffelSlice `json:"slices"`
}

// duffelTime handles both the zoned and local timestamps Duffel emits
func duffelTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02T15:04:05", s)
	return t
}

func normalizeSlices(slices []duffelSlice) []Itinerary {
	itineraries := make([]Itinerary, 0, len(slices))
	for _, sl := range slices {
		segments := make([]Segment, 0, len(sl.Segments))
		for _, seg := range sl.Segments {
			cabin := ""
			bags := 0
			if len(seg.Passengers) > 0 {
				cabin = seg.Passengers[0].CabinClass
				for _, bag := range seg.Passengers[0].Baggages {
					if bag.Type == "checked" {
						bags += bag.Quantity
					}
				}
			}
			segments = append(segments, Segment{
				ID: seg.ID,
				Departure: SegmentPoint{
					IATACode: seg.Origin.IataCode,
					City:     seg.Origin.CityName,
					At:       duffelTime(seg.DepartingAt),
				},
				Arrival: SegmentPoint{
					IATACode: seg.Destination.IataCode,
					City:     seg.Destination.CityName,
					At:       duffelTime(seg.ArrivingAt),
				},
				CarrierCode:      seg.MarketingCarrier.IataCode,
				CarrierName:      seg.MarketingCarrier.Name,
				FlightNumber:     seg.MarketingCarrierFlightNumber,
				OperatingCarrier: seg.OperatingCarrier.IataCode,
				CabinClass:       cabin,
				CheckedBags:      bags,
				DurationMinutes:  parseISODuration(seg.Duration),
			})
		}
		itineraries = append(itineraries, Itinerary{
			DurationMinutes: parseISODuration(sl.Duration),
			Segments:        segments,
		})
	}
	return itineraries
}

func (c *DuffelClient) normalizeOffer(raw json.RawMessage) (FlightOffer, error) {
	var do duffelOffer
	if err := json.Unmarshal(raw, &do); err != nil {
		return FlightOffer{}, fmt.Errorf("decode duffel offer: %w", err)
	}

	total, _ := parseAmount(do.TotalAmount)
	base, hasBase := parseAmount(do.BaseAmount)
	tax, hasTax := parseAmount(do.TaxAmount)

	passengers := make([]OfferPassenger, 0, len(do.Passengers))
	for _, p := range do.Passengers {
		passengers = append(passengers, OfferPassenger{ID: p.ID, Type: p.Type})
	}

	offer := FlightOffer{
		ID:                do.ID,
		Provider:          ProviderDuffel,
		Price:             splitPrice(do.TotalCurrency, total, base, tax, hasBase, hasTax),
		Itineraries:       normalizeSlices(do.Slices),
		Passengers:        passengers,
		ValidatingAirline: do.Owner.IataCode,
		Raw:               raw,
	}
	if do.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, do.ExpiresAt); err == nil {
			offer.ExpiresAt = &t
		}
	}

	return offer, nil
}

// ==================== OPERATIONS ====================

func (c *DuffelClient) Search(ctx context.Context, criteria SearchCriteria) ([]FlightOffer, error) {
	slices := []map[string]string{{
		"origin":         criteria.Origin,
		"destination":    criteria.Destination,
		"departure_date": criteria.DepartureDate,
	}}
	if criteria.ReturnDate != "" {
		slices = append(slices, map[string]string{
			"origin":         criteria.Destination,
			"destination":    criteria.Origin,
			"departure_date": criteria.ReturnDate,
		})
	}

	passengers := make([]map[string]string, 0, criteria.Adults+criteria.Children+criteria.Infants)
	for i := 0; i < criteria.Adults; i++ {
		passengers = append(passengers, map[string]string{"type": "adult"})
	}
	for i := 0; i < criteria.Children; i++ {
		passengers = append(passengers, map[string]string{"type": "child"})
	}
	for i := 0; i < criteria.Infants; i++ {
		passengers = append(passengers, map[string]string{"type": "infant_without_seat"})
	}

	request := map[string]any{
		"slices":     slices,
		"passengers": passengers,
	}
	if criteria.TravelClass != "" {
		request["cabin_class"] = strings.ToLower(criteria.TravelClass)
	}
	if criteria.NonStop {
		request["max_connections"] = 0
	}

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/air/offer_requests?return_offers=false",
		map[string]any{"data": request}, &created); err != nil {
		return nil, fmt.Errorf("duffel offer request: %w", err)
	}

	max := criteria.MaxResults
	if max <= 0 {
		max = 50
	}
	query := url.Values{}
	query.Set("offer_request_id", created.Data.ID)
	query.Set("sort", "total_amount")
	query.Set("limit", strconv.Itoa(max))

	var listed struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/air/offers?"+query.Encode(), nil, &listed); err != nil {
		return nil, fmt.Errorf("duffel list offers: %w", err)
	}

	offers := make([]FlightOffer, 0, len(listed.Data))
	for _, raw := range listed.Data {
		offer, err := c.normalizeOffer(raw)
		if err != nil {
			c.log.Warn("Skipping malformed offer", zap.Error(err))
			continue
		}
		offers = append(offers, offer)
	}

	return offers, nil
}

// Reprice re-reads the offer; Duffel prices are live on the offer resource
func (c *DuffelClient) Reprice(ctx context.Context, offer FlightOffer) (*FlightOffer, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	path := "/air/offers/" + url.PathEscape(offer.ID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("duffel reprice: %w", err)
	}

	repriced, err := c.normalizeOffer(resp.Data)
	if err != nil {
		return nil, err
	}
	return &repriced, nil
}

func duffelGender(g string) string {
	if strings.HasPrefix(strings.ToLower(g), "f") {
		return "f"
	}
	return "m"
}

func duffelTitle(g string) string {
	if duffelGender(g) == "f" {
		return "ms"
	}
	return "mr"
}

func (c *DuffelClient) CreateOrder(ctx context.Context, input OrderInput) (*Order, error) {
	passengers := make([]map[string]any, 0, len(input.Travelers))
	for i, t := range input.Travelers {
		// passenger ids are offer-scoped and must be echoed back verbatim
		id := t.OfferPassengerID
		if id == "" && i < len(input.Offer.Passengers) {
			id = input.Offer.Passengers[i].ID
		}
		if id == "" {
			return nil, &Error{Provider: ProviderDuffel, Kind: ErrInvalidRequest,
				Detail: fmt.Sprintf("traveler %d has no offer passenger id", i+1)}
		}

		email := t.Email
		if email == "" {
			email = input.Contacts.Email
		}
		phone := t.PhoneNumber
		if phone == "" {
			phone = input.Contacts.Phone
		}
		if phone != "" && !strings.HasPrefix(phone, "+") {
			phone = "+" + strings.TrimPrefix(t.PhoneCountryCode, "+") + phone
		}

		passenger := map[string]any{
			"id":           id,
			"title":        duffelTitle(t.Gender),
			"gender":       duffelGender(t.Gender),
			"given_name":   strings.ToUpper(t.FirstName),
			"family_name":  strings.ToUpper(t.LastName),
			"born_on":      t.DateOfBirth,
			"email":        email,
			"phone_number": phone,
		}

		if len(t.Documents) > 0 {
			documents := make([]map[string]any, 0, len(t.Documents))
			for _, doc := range t.Documents {
				documents = append(documents, map[string]any{
					"type":                 strings.ToLower(doc.Type),
					"unique_identifier":    doc.Number,
					"expires_on":           doc.ExpiryDate,
					"issuing_country_code": doc.IssuanceCountry,
				})
			}
			passenger["identity_documents"] = documents
		}

		passengers = append(passengers, passenger)
	}

	body := map[string]any{
		"data": map[string]any{
			"selected_offers": []string{input.Offer.ID},
			"payments": []map[string]any{{
				"type":     "balance",
				"amount":   input.Offer.Price.Total.StringFixed(2),
				"currency": input.Offer.Price.Currency,
			}},
			"passengers": passengers,
			"type":       "instant",
		},
	}

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/air/orders", body, &resp); err != nil {
		return nil, fmt.Errorf("duffel create order: %w", err)
	}

	return c.normalizeOrder(resp.Data)
}

func (c *DuffelClient) normalizeOrder(raw json.RawMessage) (*Order, error) {
	return ParseDuffelOrder(raw)
}

// ParseDuffelOrder normalizes a Duffel order payload. Webhook deliveries
// carry the same shape as the orders API, so the reconciler shares this.
func ParseDuffelOrder(raw json.RawMessage) (*Order, error) {
	var do struct {
		ID               string        `json:"id"`
		BookingReference string        `json:"booking_reference"`
		TotalAmount      string        `json:"total_amount"`
		TotalCurrency    string        `json:"total_currency"`
		BaseAmount       string        `json:"base_amount"`
		TaxAmount        string        `json:"tax_amount"`
		CreatedAt        string        `json:"created_at"`
		Slices           []duffelSlice `json:"slices"`
	}
	if err := json.Unmarshal(raw, &do); err != nil {
		return nil, fmt.Errorf("decode duffel order: %w", err)
	}

	total, _ := parseAmount(do.TotalAmount)
	base, hasBase := parseAmount(do.BaseAmount)
	tax, hasTax := parseAmount(do.TaxAmount)

	createdAt := duffelTime(do.CreatedAt)
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &Order{
		ID:          do.ID,
		Provider:    ProviderDuffel,
		PNR:         do.BookingReference,
		Price:       splitPrice(do.TotalCurrency, total, base, tax, hasBase, hasTax),
		Itineraries: normalizeSlices(do.Slices),
		CreatedAt:   createdAt,
		Raw:         raw,
	}, nil
}

func (c *DuffelClient) GetOrder(ctx context.Context, providerOrderID string) (*Order, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	path := "/air/orders/" + url.PathEscape(providerOrderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("duffel get order: %w", err)
	}
	return c.normalizeOrder(resp.Data)
}

// CancelOrder creates a cancellation quote and confirms it immediately.
// The refund settles asynchronously; order_cancellation.confirmed arrives
// on the webhook.
func (c *DuffelClient) CancelOrder(ctx context.Context, providerOrderID string) (*CancellationResult, error) {
	var created struct {
		Data struct {
			ID             string `json:"id"`
			RefundAmount   string `json:"refund_amount"`
			RefundCurrency string `json:"refund_currency"`
		} `json:"data"`
	}
	body := map[string]any{"data": map[string]string{"order_id": providerOrderID}}
	if err := c.do(ctx, http.MethodPost, "/air/order_cancellations", body, &created); err != nil {
		return nil, fmt.Errorf("duffel request cancellation: %w", err)
	}

	var confirmed struct {
		Data json.RawMessage `json:"data"`
	}
	confirmPath := "/air/order_cancellations/" + url.PathEscape(created.Data.ID) + "/actions/confirm"
	if err := c.do(ctx, http.MethodPost, confirmPath, nil, &confirmed); err != nil {
		return nil, fmt.Errorf("duffel confirm cancellation: %w", err)
	}

	return &CancellationResult{
		ProviderOrderID: providerOrderID,
		CancellationID:  created.Data.ID,
		RefundAmount:    created.Data.RefundAmount,
		RefundCurrency:  created.Data.RefundCurrency,
		Raw:             confirmed.Data,
	}, nil
}

func (c *DuffelClient) SearchLocations(ctx context.Context, keyword string) ([]Place, error) {
	query := url.Values{}
	query.Set("query", keyword)

	var resp struct {
		Data []struct {
			IataCode        string `json:"iata_code"`
			Name            string `json:"name"`
			Type            string `json:"type"`
			IataCountryCode string `json:"iata_country_code"`
			CityName        string `json:"city_name"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/places/suggestions?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("duffel search locations: %w", err)
	}

	places := make([]Place, 0, len(resp.Data))
	for _, loc := range resp.Data {
		places = append(places, Place{
			Code:        loc.IataCode,
			Name:        loc.Name,
			Type:        strings.ToUpper(loc.Type),
			City:        loc.CityName,
			CountryCode: loc.IataCountryCode,
		})
	}

	return places, nil
}

func (c *DuffelClient) GetSeatMaps(ctx context.Context, offer FlightOffer) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("offer_id", offer.ID)

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/air/seat_maps?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("duffel seat maps: %w", err)
	}
	return resp.Data, nil
}

var _ Client = (*DuffelClient)(nil)
