package paystack

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
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// SignatureHeader carries the webhook HMAC on Paystack callbacks.
const SignatureHeader = "X-Paystack-Signature"

// ChargeSuccessEvent is the webhook event confirming payment.
const ChargeSuccessEvent = "charge.success"

// Client talks to the Paystack transaction API.
type Client struct {
	cfg  config.PaystackConfig
	http *http.Client
	logg *logger.Logger
}

// NewClient validates the configuration and builds the client.
func NewClient(cfg config.PaystackConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("paystack secret key is required")
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		logg: logg,
	}, nil
}

// InitializeInput starts a hosted-checkout transaction.
type InitializeInput struct {
	Email       string
	Amount      decimal.Decimal
	Currency    enums.Currency
	Reference   string
	OrderNumber string
	CallbackURL string
}

// InitializeResult is the hosted-checkout handoff.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the provider's view of one transaction.
type VerifyResult struct {
	Reference       string
	Status          string
	Amount          decimal.Decimal
	Currency        string
	OrderNumber     string
	GatewayResponse string
	PaidAt          *time.Time
}

// Paid reports whether the provider settled the transaction.
func (v VerifyResult) Paid() bool {
	return v.Status == "success"
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type wireTransaction struct {
	Reference       string          `json:"reference"`
	Status          string          `json:"status"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          *time.Time      `json:"paid_at"`
	Metadata        wireMetadata    `json:"metadata"`
}

type wireMetadata struct {
	OrderNumber string `json:"order_number"`
}

// Initialize creates a transaction and returns the hosted payment page.
// Paystack expects the amount in subunits (kobo for NGN).
func (c *Client) Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error) {
	if input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body := map[string]any{
		"email":    input.Email,
		"amount":   toSubunits(input.Amount),
		"currency": string(input.Currency),
		"metadata": map[string]any{"order_number": input.OrderNumber},
	}
	if input.Reference != "" {
		body["reference"] = input.Reference
	}
	if input.CallbackURL != "" {
		body["callback_url"] = input.CallbackURL
	}

	data, err := c.call(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding paystack initialize response")
	}
	return &InitializeResult{
		AuthorizationURL: payload.AuthorizationURL,
		AccessCode:       payload.AccessCode,
		Reference:        payload.Reference,
	}, nil
}

// Verify polls the provider for the transaction state by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	data, err := c.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var tx wireTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding paystack verify response")
	}
	result := fromWire(tx)
	return &result, nil
}

// WebhookEvent is the decoded webhook callback.
type WebhookEvent struct {
	Event string
	Data  VerifyResult
}

// ValidateSignature checks the HMAC-SHA512 hex signature over the raw body.
func (c *Client) ValidateSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.cfg.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

// ParseWebhook decodes a validated webhook body.
func (c *Client) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var raw struct {
		Event string          `json:"event"`
		Data  wireTransaction `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding paystack webhook body")
	}
	if raw.Event == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paystack webhook event missing")
	}
	return &WebhookEvent{Event: raw.Event, Data: fromWire(raw.Data)}, nil
}

func (c *Client) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding paystack request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building paystack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling paystack")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading paystack response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding paystack envelope")
	}
	if resp.StatusCode >= 400 || !env.Status {
		return nil, pkgerrors.Newf(pkgerrors.CodeDependency, "paystack error (%d): %s", resp.StatusCode, env.Message)
	}
	return env.Data, nil
}

func fromWire(tx wireTransaction) VerifyResult {
	return VerifyResult{
		Reference:       tx.Reference,
		Status:          tx.Status,
		Amount:          fromSubunits(tx.Amount),
		Currency:        tx.Currency,
		OrderNumber:     tx.Metadata.OrderNumber,
		GatewayResponse: tx.GatewayResponse,
		PaidAt:          tx.PaidAt,
	}
}

// toSubunits converts a major-unit amount to integer subunits.
func toSubunits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromSubunits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-2)
}
