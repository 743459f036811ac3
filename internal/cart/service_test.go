package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string]string{}} }

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) CartKey(subject string) string { return "ac:cart:" + subject }

type fakeProducts struct {
	rows map[uuid.UUID]models.Product
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if row, ok := f.rows[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func newCartFixture(t *testing.T) (Service, *fakeStore, uuid.UUID) {
	t.Helper()

	productID := uuid.New()
	reader := &fakeProducts{rows: map[uuid.UUID]models.Product{
		productID: {
			ID:          productID,
			Title:       "Smart Watch",
			FinalPrice:  decimal.RequireFromString("25.00"),
			Currency:    enums.CurrencyNGN,
			StockStatus: enums.StockStatusInStock,
			Variants: []models.ProductVariant{
				{SKU: "sku-gold", Name: "Gold", Price: decimal.RequireFromString("30.00")},
			},
		},
	}}
	store := newFakeStore()
	svc, err := NewService(ServiceParams{
		Store:    store,
		Products: reader,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, store, productID
}

func TestAddItemMergesSameVariant(t *testing.T) {
	svc, _, productID := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sub-1", AddItemInput{ProductID: productID, Quantity: 2})
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, "sub-1", AddItemInput{ProductID: productID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, "125", view.Subtotal.String())
}

func TestAddItemKeepsVariantsSeparate(t *testing.T) {
	svc, _, productID := newCartFixture(t)
	ctx := context.Background()
	variant := "sku-gold"

	_, err := svc.AddItem(ctx, "sub-1", AddItemInput{ProductID: productID, Quantity: 1})
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, "sub-1", AddItemInput{ProductID: productID, VariantID: &variant, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	// variant line uses the variant's own price
	assert.Equal(t, "55", view.Subtotal.String())
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _, _ := newCartFixture(t)

	_, err := svc.AddItem(context.Background(), "sub-1", AddItemInput{ProductID: uuid.New(), Quantity: 1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateQuantityClampsAndRemoves(t *testing.T) {
	svc, _, productID := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sub-1", AddItemInput{ProductID: productID, Quantity: 4})
	require.NoError(t, err)

	view, err := svc.UpdateQuantity(ctx, "sub-1", productID, nil, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	// zero removes the line entirely
	view, err = svc.UpdateQuantity(ctx, "sub-1", productID, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Subtotal.IsZero())
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	svc, _, productID := newCartFixture(t)

	_, err := svc.UpdateQuantity(context.Background(), "sub-1", productID, nil, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestClearDropsStoredCart(t *testing.T) {
	svc, store, productID := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sub-1", AddItemInput{ProductID: productID, Quantity: 1})
	require.NoError(t, err)
	require.NotEmpty(t, store.data)

	require.NoError(t, svc.Clear(ctx, "sub-1"))
	assert.Empty(t, store.data)

	view, err := svc.Get(ctx, "sub-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartsAreIsolatedPerSubject(t *testing.T) {
	svc, _, productID := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sub-1", AddItemInput{ProductID: productID, Quantity: 1})
	require.NoError(t, err)

	other, err := svc.Get(ctx, "sub-2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}
