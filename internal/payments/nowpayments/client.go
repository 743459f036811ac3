package nowpayments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/config"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// SignatureHeader carries the IPN HMAC on NOWPayments callbacks.
const SignatureHeader = "X-Nowpayments-Sig"

// Payment statuses that settle an order. Everything else is in flight or
// terminal-failed.
const (
	StatusConfirmed = "confirmed"
	StatusFinished  = "finished"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
)

// Client talks to the NOWPayments crypto payment API.
type Client struct {
	cfg  config.NOWPaymentsConfig
	http *http.Client
	logg *logger.Logger
}

// NewClient validates the configuration and builds the client.
func NewClient(cfg config.NOWPaymentsConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("nowpayments api key is required")
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		logg: logg,
	}, nil
}

// CreatePaymentInput opens a crypto payment for an order.
type CreatePaymentInput struct {
	Amount        decimal.Decimal
	PriceCurrency string
	PayCurrency   string
	OrderNumber   string
	Description   string
	IPNCallback   string
}

// Payment is the provider's payment record.
type Payment struct {
	PaymentID     json.Number     `json:"payment_id"`
	PaymentStatus string          `json:"payment_status"`
	PayAddress    string          `json:"pay_address"`
	PayAmount     decimal.Decimal `json:"pay_amount"`
	PayCurrency   string          `json:"pay_currency"`
	PriceAmount   decimal.Decimal `json:"price_amount"`
	PriceCurrency string          `json:"price_currency"`
	OrderID       string          `json:"order_id"`
	InvoiceURL    string          `json:"invoice_url"`
}

// Settled reports whether the status confirms full payment.
func Settled(status string) bool {
	return status == StatusConfirmed || status == StatusFinished
}

// CreatePayment opens a payment and returns the deposit instructions.
func (c *Client) CreatePayment(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.PayCurrency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pay currency is required")
	}

	body := map[string]any{
		"price_amount":   input.Amount,
		"price_currency": strings.ToLower(input.PriceCurrency),
		"pay_currency":   strings.ToLower(input.PayCurrency),
		"order_id":       input.OrderNumber,
	}
	if input.Description != "" {
		body["order_description"] = input.Description
	}
	if input.IPNCallback != "" {
		body["ipn_callback_url"] = input.IPNCallback
	}

	raw, err := c.call(ctx, http.MethodPost, "/payment", body)
	if err != nil {
		return nil, err
	}
	var payment Payment
	if err := json.Unmarshal(raw, &payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding nowpayments payment")
	}
	return &payment, nil
}

// GetPaymentStatus polls the payment state by provider payment id.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	raw, err := c.call(ctx, http.MethodGet, "/payment/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	var payment Payment
	if err := json.Unmarshal(raw, &payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding nowpayments payment")
	}
	return &payment, nil
}

// IPNEvent is the decoded instant payment notification.
type IPNEvent struct {
	PaymentID     json.Number     `json:"payment_id"`
	PaymentStatus string          `json:"payment_status"`
	OrderID       string          `json:"order_id"`
	PriceAmount   decimal.Decimal `json:"price_amount"`
	PriceCurrency string          `json:"price_currency"`
	PayCurrency   string          `json:"pay_currency"`
	ActuallyPaid  decimal.Decimal `json:"actually_paid"`
}

// ValidateIPNSignature checks the HMAC-SHA512 hex signature computed over
// the body re-serialized with alphabetically sorted keys, which is how the
// provider signs notifications.
func (c *Client) ValidateIPNSignature(body []byte, signature string) bool {
	if c.cfg.IPNSecret == "" {
		return false
	}
	sorted, err := sortedJSON(body)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.cfg.IPNSecret))
	mac.Write(sorted)
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

// ParseIPN decodes a validated notification body.
func (c *Client) ParseIPN(body []byte) (*IPNEvent, error) {
	var event IPNEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding nowpayments ipn body")
	}
	if event.PaymentStatus == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nowpayments ipn status missing")
	}
	return &event, nil
}

// sortedJSON re-marshals the object with sorted keys; encoding/json sorts
// map keys deterministically.
func sortedJSON(body []byte) ([]byte, error) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}
	return json.Marshal(decoded)
}

func (c *Client) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding nowpayments request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building nowpayments request")
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling nowpayments")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading nowpayments response")
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return nil, pkgerrors.Newf(pkgerrors.CodeDependency, "nowpayments error (%d): %s", resp.StatusCode, apiErr.Message)
	}
	return raw, nil
}
