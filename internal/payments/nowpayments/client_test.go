package nowpayments

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
	client, err := NewClient(config.NOWPaymentsConfig{
		APIKey:    "np_test_key",
		IPNSecret: "ipn_secret",
		BaseURL:   "https://api.nowpayments.io/v1",
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.NOWPaymentsConfig{}, nil)
	require.Error(t, err)
}

func TestSettled(t *testing.T) {
	assert.True(t, Settled(StatusConfirmed))
	assert.True(t, Settled(StatusFinished))
	assert.False(t, Settled("waiting"))
	assert.False(t, Settled(StatusFailed))
}

func TestValidateIPNSignatureIsKeyOrderInsensitive(t *testing.T) {
	client := testClient(t)

	// signature computed over the alphabetically sorted serialization
	sorted := []byte(`{"order_id":"ORD-1-abc","payment_id":123,"payment_status":"finished"}`)
	mac := hmac.New(sha512.New, []byte("ipn_secret"))
	mac.Write(sorted)
	signature := hex.EncodeToString(mac.Sum(nil))

	shuffled := []byte(`{"payment_status":"finished","payment_id":123,"order_id":"ORD-1-abc"}`)
	assert.True(t, client.ValidateIPNSignature(shuffled, signature))
	assert.False(t, client.ValidateIPNSignature(shuffled, "deadbeef"))
	assert.False(t, client.ValidateIPNSignature([]byte(`{"payment_status":"failed"}`), signature))
}

func TestParseIPN(t *testing.T) {
	client := testClient(t)

	event, err := client.ParseIPN([]byte(`{
		"payment_id": 4521,
		"payment_status": "finished",
		"order_id": "ORD-1-abc",
		"price_amount": 120.50,
		"price_currency": "usd",
		"pay_currency": "usdt",
		"actually_paid": 120.50
	}`))
	require.NoError(t, err)
	assert.Equal(t, "4521", event.PaymentID.String())
	assert.Equal(t, StatusFinished, event.PaymentStatus)
	assert.Equal(t, "ORD-1-abc", event.OrderID)
	assert.True(t, event.PriceAmount.Equal(decimal.RequireFromString("120.50")))

	_, err = client.ParseIPN([]byte(`{"order_id":"x"}`))
	require.Error(t, err)
}

func TestCreatePaymentValidation(t *testing.T) {
	client := testClient(t)

	_, err := client.CreatePayment(context.Background(), CreatePaymentInput{
		Amount: decimal.Zero, PayCurrency: "usdt",
	})
	require.Error(t, err)

	_, err = client.CreatePayment(context.Background(), CreatePaymentInput{
		Amount: decimal.NewFromInt(10),
	})
	require.Error(t, err)
}
