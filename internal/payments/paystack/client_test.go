package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stan-lee13/auracart-ng/pkg/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(config.PaystackConfig{SecretKey: "sk_test_secret", BaseURL: "https://api.paystack.co"}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresSecret(t *testing.T) {
	_, err := NewClient(config.PaystackConfig{}, nil)
	require.Error(t, err)
}

func TestToSubunits(t *testing.T) {
	assert.Equal(t, int64(150000), toSubunits(decimal.RequireFromString("1500.00")))
	assert.Equal(t, int64(1999), toSubunits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(100), toSubunits(decimal.RequireFromString("1")))
	assert.Equal(t, "19.99", fromSubunits(1999).String())
}

func TestValidateSignature(t *testing.T) {
	client := testClient(t)
	body := []byte(`{"event":"charge.success"}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.ValidateSignature(body, signature))
	assert.False(t, client.ValidateSignature(body, "deadbeef"))
	assert.False(t, client.ValidateSignature([]byte(`tampered`), signature))
}

func TestParseWebhook(t *testing.T) {
	client := testClient(t)
	body := []byte(`{
		"event": "charge.success",
		"data": {
			"reference": "ref-123",
			"status": "success",
			"amount": 250000,
			"currency": "NGN",
			"gateway_response": "Successful",
			"metadata": {"order_number": "ORD-1-abc"}
		}
	}`)

	event, err := client.ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, ChargeSuccessEvent, event.Event)
	assert.Equal(t, "ref-123", event.Data.Reference)
	assert.True(t, event.Data.Paid())
	assert.Equal(t, "2500", event.Data.Amount.String())
	assert.Equal(t, "ORD-1-abc", event.Data.OrderNumber)

	_, err = client.ParseWebhook([]byte(`{"data":{}}`))
	require.Error(t, err)
}

func TestInitializeValidation(t *testing.T) {
	client := testClient(t)

	_, err := client.Initialize(context.Background(), InitializeInput{Amount: decimal.NewFromInt(10)})
	require.Error(t, err)

	_, err = client.Initialize(context.Background(), InitializeInput{Email: "a@b.c", Amount: decimal.Zero})
	require.Error(t, err)
}
