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
	"sync"
	"time"

	"travel-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AmadeusClient talks to the Amadeus Self-Service REST API (GDS-style).
type AmadeusClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	log          *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewAmadeusClient(config utils.AmadeusConfig, log *zap.Logger) *AmadeusClient {
	return &AmadeusClient{
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		httpClient:   &http.Client{},
		log:          log.With(zap.String("provider", "amadeus")),
	}
}

func (c *AmadeusClient) Name() Provider {
	return ProviderAmadeus
}

// token returns a cached OAuth2 access token, refreshing when near expiry
func (c *AmadeusClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Provider: ProviderAmadeus, Kind: ErrUpstreamUnavailable, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &Error{Provider: ProviderAmadeus, Kind: ErrUpstreamUnavailable,
			Detail: fmt.Sprintf("token request failed (%d): %s", resp.StatusCode, string(body))}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return c.accessToken, nil
}

// do executes an authenticated request and decodes the JSON body into out
func (c *AmadeusClient) do(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

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
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Provider: ProviderAmadeus, Kind: ErrUpstreamUnavailable, Detail: err.Error()}
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

func (c *AmadeusClient) mapError(status int, body []byte) error {
	var errResp struct {
		Errors []struct {
			Status int    `json:"status"`
			Code   int    `json:"code"`
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	detail := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Errors) > 0 {
		first := errResp.Errors[0]
		if first.Detail != "" {
			detail = first.Detail
		} else {
			detail = first.Title
		}
	}

	kind := ErrInvalidRequest
	switch {
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status >= 500:
		kind = ErrUpstreamUnavailable
	case strings.Contains(strings.ToLower(detail), "no longer available"),
		strings.Contains(strings.ToLower(detail), "expired"):
		kind = ErrOfferExpired
	}

	c.log.Warn("Upstream error",
		zap.Int("status", status),
		zap.String("kind", string(kind)),
		zap.String("detail", detail))

	return &Error{Provider: ProviderAmadeus, Kind: kind, Detail: detail}
}

// ==================== RAW SHAPES ====================

type amadeusOffer struct {
	ID                     string   `json:"id"`
	Type                   string   `json:"type"`
	Source                 string   `json:"source"`
	LastTicketingDate      string   `json:"lastTicketingDate"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
	Itineraries            []struct {
		Duration string `json:"duration"`
		Segments []struct {
			ID        string `json:"id"`
			Departure struct {
				IataCode string `json:"iataCode"`
				Terminal string `json:"terminal"`
				At       string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				IataCode string `json:"iataCode"`
				Terminal string `json:"terminal"`
				At       string `json:"at"`
			} `json:"arrival"`
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
			Operating   struct {
				CarrierCode string `json:"carrierCode"`
			} `json:"operating"`
			Duration string `json:"duration"`
		} `json:"segments"`
	} `json:"itineraries"`
	Price struct {
		Currency   string `json:"currency"`
		Total      string `json:"total"`
		Base       string `json:"base"`
		GrandTotal string `json:"grandTotal"`
	} `json:"price"`
	TravelerPricings []struct {
		TravelerID           string `json:"travelerId"`
		TravelerType         string `json:"travelerType"`
		FareDetailsBySegment []struct {
			SegmentID           string `json:"segmentId"`
			Cabin               string `json:"cabin"`
			IncludedCheckedBags struct {
				Quantity int `json:"quantity"`
			} `json:"includedCheckedBags"`
		} `json:"fareDetailsBySegment"`
	} `json:"travelerPricings"`
}

// amadeusTime handles the zone-less timestamps Amadeus emits
func amadeusTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func (c *AmadeusClient) normalizeOffer(raw json.RawMessage) (FlightOffer, error) {
	var ao amadeusOffer
	if err := json.Unmarshal(raw, &ao); err != nil {
		return FlightOffer{}, fmt.Errorf("decode amadeus offer: %w", err)
	}

	// cabin and baggage live under travelerPricings, keyed by segment id
	cabinBySegment := map[string]string{}
	bagsBySegment := map[string]int{}
	if len(ao.TravelerPricings) > 0 {
		for _, fd := range ao.TravelerPricings[0].FareDetailsBySegment {
			cabinBySegment[fd.SegmentID] = fd.Cabin
			bagsBySegment[fd.SegmentID] = fd.IncludedCheckedBags.Quantity
		}
	}

	itineraries := make([]Itinerary, 0, len(ao.Itineraries))
	for _, it := range ao.Itineraries {
		segments := make([]Segment, 0, len(it.Segments))
		for _, seg := range it.Segments {
			operating := seg.Operating.CarrierCode
			segments = append(segments, Segment{
				ID: seg.ID,
				Departure: SegmentPoint{
					IATACode: seg.Departure.IataCode,
					Terminal: seg.Departure.Terminal,
					At:       amadeusTime(seg.Departure.At),
				},
				Arrival: SegmentPoint{
					IATACode: seg.Arrival.IataCode,
					Terminal: seg.Arrival.Terminal,
					At:       amadeusTime(seg.Arrival.At),
				},
				CarrierCode:      seg.CarrierCode,
				FlightNumber:     seg.Number,
				OperatingCarrier: operating,
				CabinClass:       cabinBySegment[seg.ID],
				CheckedBags:      bagsBySegment[seg.ID],
				DurationMinutes:  parseISODuration(seg.Duration),
			})
		}
		itineraries = append(itineraries, Itinerary{
			DurationMinutes: parseISODuration(it.Duration),
			Segments:        segments,
		})
	}

	total, _ := parseAmount(firstNonEmpty(ao.Price.GrandTotal, ao.Price.Total))
	base, hasBase := parseAmount(ao.Price.Base)

	passengers := make([]OfferPassenger, 0, len(ao.TravelerPricings))
	for _, tp := range ao.TravelerPricings {
		passengers = append(passengers, OfferPassenger{ID: tp.TravelerID, Type: strings.ToLower(tp.TravelerType)})
	}

	var validating string
	if len(ao.ValidatingAirlineCodes) > 0 {
		validating = ao.ValidatingAirlineCodes[0]
	}

	return FlightOffer{
		ID:                ao.ID,
		Provider:          ProviderAmadeus,
		Price:             splitPrice(ao.Price.Currency, total, base, decimal.Zero, hasBase, false),
		Itineraries:       itineraries,
		Passengers:        passengers,
		ValidatingAirline: validating,
		Raw:               raw,
	}, nil
}

// ==================== OPERATIONS ====================

func (c *AmadeusClient) Search(ctx context.Context, criteria SearchCriteria) ([]FlightOffer, error) {
	query := url.Values{}
	query.Set("originLocationCode", criteria.Origin)
	query.Set("destinationLocationCode", criteria.Destination)
	query.Set("departureDate", criteria.DepartureDate)
	query.Set("adults", strconv.Itoa(criteria.Adults))
	if criteria.ReturnDate != "" {
		query.Set("returnDate", criteria.ReturnDate)
	}
	if criteria.Children > 0 {
		query.Set("children", strconv.Itoa(criteria.Children))
	}
	if criteria.Infants > 0 {
		query.Set("infants", strconv.Itoa(criteria.Infants))
	}
	if criteria.TravelClass != "" {
		query.Set("travelClass", strings.ToUpper(criteria.TravelClass))
	}
	if criteria.NonStop {
		query.Set("nonStop", "true")
	}
	if criteria.CurrencyCode != "" {
		query.Set("currencyCode", criteria.CurrencyCode)
	}
	max := criteria.MaxResults
	if max <= 0 {
		max = 50
	}
	query.Set("max", strconv.Itoa(max))

	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/shopping/flight-offers?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("amadeus search: %w", err)
	}

	offers := make([]FlightOffer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		offer, err := c.normalizeOffer(raw)
		if err != nil {
			c.log.Warn("Skipping malformed offer", zap.Error(err))
			continue
		}
		offers = append(offers, offer)
	}

	return offers, nil
}

func (c *AmadeusClient) Reprice(ctx context.Context, offer FlightOffer) (*FlightOffer, error) {
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []json.RawMessage{offer.Raw},
		},
	}

	var resp struct {
		Data struct {
			FlightOffers []json.RawMessage `json:"flightOffers"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/shopping/flight-offers/pricing", body, &resp); err != nil {
		return nil, fmt.Errorf("amadeus reprice: %w", err)
	}
	if len(resp.Data.FlightOffers) == 0 {
		return nil, &Error{Provider: ProviderAmadeus, Kind: ErrOfferExpired, Detail: "offer no longer priceable"}
	}

	repriced, err := c.normalizeOffer(resp.Data.FlightOffers[0])
	if err != nil {
		return nil, err
	}
	return &repriced, nil
}

func (c *AmadeusClient) CreateOrder(ctx context.Context, input OrderInput) (*Order, error) {
	travelers := make([]map[string]any, 0, len(input.Travelers))
	for i, t := range input.Travelers {
		cleanPhone := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(t.PhoneNumber)
		countryCode := strings.TrimPrefix(t.PhoneCountryCode, "+")
		if countryCode == "" {
			countryCode = "1"
		}
		email := t.Email
		if email == "" {
			email = input.Contacts.Email
		}

		documents := make([]map[string]any, 0, len(t.Documents))
		for _, doc := range t.Documents {
			documents = append(documents, map[string]any{
				"documentType":    strings.ToUpper(doc.Type),
				"number":          doc.Number,
				"expiryDate":      doc.ExpiryDate,
				"issuanceCountry": doc.IssuanceCountry,
				"nationality":     doc.Nationality,
				"holder":          true,
			})
		}

		// Amadeus traveler ids are the offer's numeric slots
		id := t.OfferPassengerID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}

		travelers = append(travelers, map[string]any{
			"id":          id,
			"dateOfBirth": t.DateOfBirth,
			"gender":      strings.ToUpper(t.Gender),
			"name": map[string]string{
				"firstName": strings.ToUpper(t.FirstName),
				"lastName":  strings.ToUpper(t.LastName),
			},
			"contact": map[string]any{
				"emailAddress": email,
				"phones": []map[string]string{{
					"deviceType":         "MOBILE",
					"countryCallingCode": countryCode,
					"number":             cleanPhone,
				}},
			},
			"documents": documents,
		})
	}

	data := map[string]any{
		"type":         "flight-order",
		"flightOffers": []json.RawMessage{input.Offer.Raw},
		"travelers":    travelers,
	}
	if input.Remarks != "" {
		data["remarks"] = map[string]any{
			"general": []map[string]string{{"subType": "GENERAL_MISCELLANEOUS", "text": input.Remarks}},
		}
	}

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/booking/flight-orders", map[string]any{"data": data}, &resp); err != nil {
		return nil, fmt.Errorf("amadeus create order: %w", err)
	}

	return c.normalizeOrder(resp.Data)
}

func (c *AmadeusClient) normalizeOrder(raw json.RawMessage) (*Order, error) {
	var ao struct {
		ID                string `json:"id"`
		AssociatedRecords []struct {
			Reference        string `json:"reference"`
			CreationDate     string `json:"creationDate"`
			OriginSystemCode string `json:"originSystemCode"`
		} `json:"associatedRecords"`
		FlightOffers []json.RawMessage `json:"flightOffers"`
	}
	if err := json.Unmarshal(raw, &ao); err != nil {
		return nil, fmt.Errorf("decode amadeus order: %w", err)
	}

	order := &Order{
		ID:        ao.ID,
		Provider:  ProviderAmadeus,
		CreatedAt: time.Now(),
		Raw:       raw,
	}
	if len(ao.AssociatedRecords) > 0 {
		order.PNR = ao.AssociatedRecords[0].Reference
	}
	if len(ao.FlightOffers) > 0 {
		if offer, err := c.normalizeOffer(ao.FlightOffers[0]); err == nil {
			order.Price = offer.Price
			order.Itineraries = offer.Itineraries
		}
	}

	return order, nil
}

func (c *AmadeusClient) GetOrder(ctx context.Context, providerOrderID string) (*Order, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	path := "/v1/booking/flight-orders/" + url.PathEscape(providerOrderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("amadeus get order: %w", err)
	}
	return c.normalizeOrder(resp.Data)
}

func (c *AmadeusClient) CancelOrder(ctx context.Context, providerOrderID string) (*CancellationResult, error) {
	path := "/v1/booking/flight-orders/" + url.PathEscape(providerOrderID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return nil, fmt.Errorf("amadeus cancel order: %w", err)
	}
	return &CancellationResult{ProviderOrderID: providerOrderID}, nil
}

func (c *AmadeusClient) SearchLocations(ctx context.Context, keyword string) ([]Place, error) {
	query := url.Values{}
	query.Set("keyword", keyword)
	query.Set("subType", "AIRPORT,CITY")

	var resp struct {
		Data []struct {
			IataCode string `json:"iataCode"`
			Name     string `json:"name"`
			SubType  string `json:"subType"`
			Address  struct {
				CityName    string `json:"cityName"`
				CountryCode string `json:"countryCode"`
			} `json:"address"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/reference-data/locations?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("amadeus search locations: %w", err)
	}

	places := make([]Place, 0, len(resp.Data))
	for _, loc := range resp.Data {
		places = append(places, Place{
			Code:        loc.IataCode,
			Name:        loc.Name,
			Type:        loc.SubType,
			City:        loc.Address.CityName,
			CountryCode: loc.Address.CountryCode,
		})
	}

	return places, nil
}

func (c *AmadeusClient) GetSeatMaps(ctx context.Context, offer FlightOffer) (json.RawMessage, error) {
	body := map[string]any{"data": []json.RawMessage{offer.Raw}}

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/shopping/seatmaps", body, &resp); err != nil {
		return nil, fmt.Errorf("amadeus seat maps: %w", err)
	}
	return resp.Data, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ Client = (*AmadeusClient)(nil)
