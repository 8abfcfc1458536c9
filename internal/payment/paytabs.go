package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"travel-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChargePageInput describes the hosted payment page to create
type ChargePageInput struct {
	CartID        string
	Amount        decimal.Decimal
	Currency      string
	Description   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ReturnURL     string
	CallbackURL   string
}

// ChargePage is the created hosted page the customer is redirected to
type ChargePage struct {
	TransactionRef string `json:"transaction_ref"`
	RedirectURL    string `json:"redirect_url"`
}

// VerificationResult is the gateway's answer for a transaction query.
// Approved is only true for an authorized capture; every other response
// status counts as failed.
type VerificationResult struct {
	Approved        bool            `json:"approved"`
	TransactionRef  string          `json:"transaction_ref"`
	ResponseStatus  string          `json:"response_status"`
	ResponseMessage string          `json:"response_message"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	CartID          string          `json:"cart_id"`
	Raw             json.RawMessage `json:"-"`
}

// RefundResult reports the outcome of a refund request
type RefundResult struct {
	Approved       bool   `json:"approved"`
	TransactionRef string `json:"transaction_ref"`
	ResponseStatus string `json:"response_status"`
}

// Gateway is the payment processor contract
type Gateway interface {
	CreateChargePage(ctx context.Context, input ChargePageInput) (*ChargePage, error)
	VerifyPayment(ctx context.Context, transactionRef string) (*VerificationResult, error)
	Refund(ctx context.Context, transactionRef, cartID string, amount decimal.Decimal, currency, reason string) (*RefundResult, error)
}

// PayTabsGateway implements Gateway against the PayTabs hosted-page API
type PayTabsGateway struct {
	baseURL    string
	profileID  string
	serverKey  string
	httpClient *http.Client
	log        *zap.Logger
}

func NewPayTabsGateway(config utils.PayTabsConfig, log *zap.Logger) *PayTabsGateway {
	return &PayTabsGateway{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		profileID:  config.ProfileID,
		serverKey:  config.ServerKey,
		httpClient: &http.Client{},
		log:        log.With(zap.String("gateway", "paytabs")),
	}
}

func (g *PayTabsGateway) post(ctx context.Context, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", g.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paytabs request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		g.log.Warn("Gateway error", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return fmt.Errorf("paytabs returned %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (g *PayTabsGateway) CreateChargePage(ctx context.Context, input ChargePageInput) (*ChargePage, error) {
	body := map[string]any{
		"profile_id":       g.profileID,
		"tran_type":        "sale",
		"tran_class":       "ecom",
		"cart_id":          input.CartID,
		"cart_currency":    input.Currency,
		"cart_amount":      input.Amount.StringFixed(2),
		"cart_description": input.Description,
		"customer_details": map[string]string{
			"name":  input.CustomerName,
			"email": input.CustomerEmail,
			"phone": input.CustomerPhone,
		},
		"hide_shipping": true,
		"return":        input.ReturnURL,
		"callback":      input.CallbackURL,
	}

	var resp struct {
		TranRef     string `json:"tran_ref"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := g.post(ctx, "/payment/request", body, &resp); err != nil {
		return nil, fmt.Errorf("create charge page: %w", err)
	}
	if resp.RedirectURL == "" {
		return nil, fmt.Errorf("create charge page: gateway returned no redirect url")
	}

	g.log.Info("Charge page created",
		zap.String("cart_id", input.CartID),
		zap.String("tran_ref", resp.TranRef))

	return &ChargePage{TransactionRef: resp.TranRef, RedirectURL: resp.RedirectURL}, nil
}

func (g *PayTabsGateway) VerifyPayment(ctx context.Context, transactionRef string) (*VerificationResult, error) {
	body := map[string]any{
		"profile_id": g.profileID,
		"tran_ref":   transactionRef,
	}

	raw := json.RawMessage{}
	var resp struct {
		TranRef       string `json:"tran_ref"`
		CartID        string `json:"cart_id"`
		CartAmount    string `json:"cart_amount"`
		CartCurrency  string `json:"cart_currency"`
		PaymentResult struct {
			ResponseStatus  string `json:"response_status"`
			ResponseMessage string `json:"response_message"`
		} `json:"payment_result"`
	}
	if err := g.post(ctx, "/payment/query", body, &raw); err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("verify payment: decode: %w", err)
	}

	amount, _ := decimal.NewFromString(resp.CartAmount)

	// "A" means authorized; declined, held and errored statuses all fail
	result := &VerificationResult{
		Approved:        resp.PaymentResult.ResponseStatus == "A",
		TransactionRef:  resp.TranRef,
		ResponseStatus:  resp.PaymentResult.ResponseStatus,
		ResponseMessage: resp.PaymentResult.ResponseMessage,
		Amount:          amount,
		Currency:        resp.CartCurrency,
		CartID:          resp.CartID,
		Raw:             raw,
	}

	g.log.Info("Payment verified",
		zap.String("tran_ref", transactionRef),
		zap.String("response_status", result.ResponseStatus),
		zap.Bool("approved", result.Approved))

	return result, nil
}

func (g *PayTabsGateway) Refund(ctx context.Context, transactionRef, cartID string, amount decimal.Decimal, currency, reason string) (*RefundResult, error) {
	body := map[string]any{
		"profile_id":       g.profileID,
		"tran_type":        "refund",
		"tran_class":       "ecom",
		"tran_ref":         transactionRef,
		"cart_id":          cartID,
		"cart_currency":    currency,
		"cart_amount":      amount.StringFixed(2),
		"cart_description": reason,
	}

	var resp struct {
		TranRef       string `json:"tran_ref"`
		PaymentResult struct {
			ResponseStatus string `json:"response_status"`
		} `json:"payment_result"`
	}
	if err := g.post(ctx, "/payment/request", body, &resp); err != nil {
		return nil, fmt.Errorf("refund: %w", err)
	}

	result := &RefundResult{
		Approved:       resp.PaymentResult.ResponseStatus == "A",
		TransactionRef: resp.TranRef,
		ResponseStatus: resp.PaymentResult.ResponseStatus,
	}

	g.log.Info("Refund requested",
		zap.String("original_tran_ref", transactionRef),
		zap.String("refund_tran_ref", result.TransactionRef),
		zap.Bool("approved", result.Approved))

	return result, nil
}

var _ Gateway = (*PayTabsGateway)(nil)
