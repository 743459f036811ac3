package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestCalculateMarkupStaysWithinBounds(t *testing.T) {
	cost := decimal.NewFromInt(100)
	categories := []string{"electronics", "fashion", "home-goods", "accessories", "default", "unknown-tag"}

	metas := []*Metadata{
		nil,
		{},
		{TrendingScore: floatPtr(0)},
		{TrendingScore: floatPtr(0.5)},
		{TrendingScore: floatPtr(1.0)},
		{SalesVelocity: floatPtr(5)},
		{SalesVelocity: floatPtr(25)},
		{TrendingScore: floatPtr(1.0), SalesVelocity: floatPtr(50)},
	}

	for _, category := range categories {
		bucket := BucketFor(category)
		for _, meta := range metas {
			multiplier := CalculateMarkup(cost, category, meta)

			profit := cost.Mul(multiplier).Sub(cost)
			inBounds := multiplier.GreaterThanOrEqual(bucket.Min.Round(2)) &&
				multiplier.LessThanOrEqual(bucket.Max.Round(2))
			meetsFloor := profit.GreaterThanOrEqual(bucket.MinProfit.Sub(decimal.NewFromFloat(0.01)))

			assert.True(t, inBounds || meetsFloor,
				"category %s meta %+v produced multiplier %s", category, meta, multiplier)
		}
	}
}

func TestCalculateMarkupTrendBoost(t *testing.T) {
	cost := decimal.NewFromInt(100)

	base := CalculateMarkup(cost, "home-goods", nil)
	boosted := CalculateMarkup(cost, "home-goods", &Metadata{TrendingScore: floatPtr(0.5)})

	// 1.9 + 0.5*0.30 = 2.05
	require.Equal(t, "1.9", base.String())
	require.Equal(t, "2.05", boosted.String())
}

func TestCalculateMarkupVelocityBoost(t *testing.T) {
	cost := decimal.NewFromInt(100)

	slow := CalculateMarkup(cost, "home-goods", &Metadata{SalesVelocity: floatPtr(10)})
	fast := CalculateMarkup(cost, "home-goods", &Metadata{SalesVelocity: floatPtr(10.5)})

	require.Equal(t, "1.9", slow.String())
	require.Equal(t, "2", fast.String())
}

func TestCalculateMarkupClampsAtCeiling(t *testing.T) {
	cost := decimal.NewFromInt(100)

	multiplier := CalculateMarkup(cost, "fashion", &Metadata{
		TrendingScore: floatPtr(1.0),
		SalesVelocity: floatPtr(50),
	})

	// 2.2 + 0.30 + 0.10 = 2.6 exactly at the fashion ceiling
	require.Equal(t, "2.6", multiplier.String())
}

func TestCalculateMarkupProfitFloorOverridesCeiling(t *testing.T) {
	// electronics demands at least 2.00 profit; a 1.00 cost item at the
	// 1.8 ceiling would earn only 0.80, so the floor takes over.
	cost := decimal.NewFromInt(1)

	multiplier := CalculateMarkup(cost, "electronics", nil)

	require.Equal(t, "3", multiplier.String())
	profit := cost.Mul(multiplier).Sub(cost)
	assert.True(t, profit.GreaterThanOrEqual(decimal.NewFromInt(2)))
}

func TestCalculateMarkupZeroCostSkipsFloor(t *testing.T) {
	multiplier := CalculateMarkup(decimal.Zero, "electronics", nil)
	require.Equal(t, "1.6", multiplier.String())
}

func TestCalculateFinalPriceRoundsToTwoPlaces(t *testing.T) {
	cost := decimal.RequireFromString("33.33")
	multiplier := decimal.RequireFromString("1.75")

	price := CalculateFinalPrice(cost, multiplier)

	require.Equal(t, "58.33", price.String())
	// idempotent with same inputs
	require.True(t, price.Equal(CalculateFinalPrice(cost, multiplier)))
}

func TestDetectCategory(t *testing.T) {
	cases := []struct {
		title       string
		description string
		expected    string
	}{
		{"Wireless Bluetooth Headphones", "", "electronics"},
		{"Red Cotton Dress", "", "fashion"},
		{"Nordic Kitchen Shelf", "oak furniture", "home-goods"},
		{"Leather Wallet", "slim card holder", "accessories"},
		{"???", "", "default"},
		{"", "4K Camera drone", "electronics"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, DetectCategory(tc.title, tc.description),
			"title=%q description=%q", tc.title, tc.description)
	}
}
