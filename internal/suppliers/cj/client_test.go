package cj

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

func TestNormalizeProduct(t *testing.T) {
	raw := wireProduct{
		PID:          "cj-7788",
		NameEN:       "Ceramic Mug",
		ImageList:    []string{"https://img/mug.jpg"},
		SellPrice:    decimal.RequireFromString("3.20"),
		Currency:     "USD",
		ShippingFee:  decimal.RequireFromString("2.10"),
		DeliveryTime: "5-8 days",
		ListedNum:    12,
		Variants: []wireVariant{
			{VID: "v-1", NameEN: "White", SellPrice: decimal.RequireFromString("3.20"), Stock: 100},
		},
	}

	product := normalize(raw)

	assert.Equal(t, enums.SupplierCJ, product.Supplier)
	assert.Equal(t, "cj-7788", product.SupplierProductID)
	assert.True(t, product.InStock)
	require.Len(t, product.Variants, 1)
	// variant sku falls back to the vid when no explicit sku is set
	assert.Equal(t, "v-1", product.Variants[0].SKU)
}

func TestNormalizeOutOfStock(t *testing.T) {
	product := normalize(wireProduct{PID: "cj-1", ListedNum: 0})
	assert.False(t, product.InStock)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.CJConfig{}, nil, nil)
	require.Error(t, err)

	client, err := NewClient(config.CJConfig{APIKey: "key", BaseURL: "https://example.test"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.SupplierCJ, client.Type())
}
