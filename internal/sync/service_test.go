package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/internal/automation"
	"github.com/Stan-lee13/auracart-ng/internal/orders"
	"github.com/Stan-lee13/auracart-ng/internal/products"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

type fakeCatalog struct {
	types    []enums.SupplierType
	products map[string]*suppliers.Product
	statuses map[string]*suppliers.OrderStatus
	errs     map[string]error
}

func (f *fakeCatalog) Types() []enums.SupplierType { return f.types }

func (f *fakeCatalog) GetProduct(_ context.Context, _ enums.SupplierType, supplierProductID string) (*suppliers.Product, error) {
	if err, ok := f.errs[supplierProductID]; ok {
		return nil, err
	}
	listing, ok := f.products[supplierProductID]
	if !ok {
		return nil, errors.New("listing not found")
	}
	return listing, nil
}

func (f *fakeCatalog) GetOrderStatus(_ context.Context, _ enums.SupplierType, supplierOrderID string) (*suppliers.OrderStatus, error) {
	if err, ok := f.errs[supplierOrderID]; ok {
		return nil, err
	}
	status, ok := f.statuses[supplierOrderID]
	if !ok {
		return nil, errors.New("order not found")
	}
	return status, nil
}

type syncFixture struct {
	svc      Service
	products *products.Repository
	orders   orders.Repository
	logs     *automation.Repository
	catalog  *fakeCatalog
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  supplier TEXT NOT NULL,
  supplier_product_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  images TEXT NOT NULL DEFAULT '{}',
  category TEXT NOT NULL DEFAULT 'default',
  supplier_cost TEXT NOT NULL,
  markup_multiplier TEXT NOT NULL,
  final_price TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'NGN',
  stock_status TEXT NOT NULL DEFAULT 'in_stock',
  variants TEXT,
  trending_score REAL,
  sales_velocity REAL,
  sync_status TEXT NOT NULL DEFAULT 'pending',
  last_synced_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_subject TEXT NOT NULL,
  email TEXT NOT NULL,
  items TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'NGN',
  shipping_address TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  fulfillment_status TEXT NOT NULL DEFAULT 'pending',
  supplier_order_id TEXT,
  tracking_number TEXT,
  tracking_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS automation_logs (
  id TEXT PRIMARY KEY,
  automation_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'running',
  order_id TEXT,
  details TEXT,
  error_message TEXT,
  started_at DATETIME,
  completed_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	fx := &syncFixture{
		products: products.NewRepository(db),
		orders:   orders.NewRepository(db),
		logs:     automation.NewRepository(db),
		catalog: &fakeCatalog{
			types:    []enums.SupplierType{enums.SupplierAliExpress},
			products: map[string]*suppliers.Product{},
			statuses: map[string]*suppliers.OrderStatus{},
			errs:     map[string]error{},
		},
	}
	svc, err := NewService(ServiceParams{
		Products: fx.products,
		Orders:   fx.orders,
		Logs:     fx.logs,
		Manager:  fx.catalog,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	fx.svc = svc
	return fx
}

func (fx *syncFixture) seedProduct(t *testing.T, supplierProductID, cost string) *models.Product {
	t.Helper()

	product, err := fx.products.Create(context.Background(), &models.Product{
		ID:                uuid.New(),
		Supplier:          enums.SupplierAliExpress,
		SupplierProductID: supplierProductID,
		Title:             "Portable Blender",
		SupplierCost:      decimal.RequireFromString(cost),
		MarkupMultiplier:  decimal.RequireFromString("2"),
		FinalPrice:        decimal.RequireFromString(cost).Mul(decimal.RequireFromString("2")),
		Currency:          enums.CurrencyNGN,
		StockStatus:       enums.StockStatusInStock,
		SyncStatus:        enums.SyncStatusPending,
	})
	require.NoError(t, err)
	return product
}

func (fx *syncFixture) seedShippedOrder(t *testing.T, productID uuid.UUID, supplierOrderID string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orders.GenerateOrderNumber(),
		CustomerSubject: "sub-1",
		Email:           "buyer@example.com",
		Items: []models.OrderItem{
			{ProductID: productID, Title: "Portable Blender", Quantity: 1, UnitPrice: decimal.RequireFromString("20")},
		},
		TotalAmount:       decimal.RequireFromString("20"),
		Currency:          enums.CurrencyNGN,
		ShippingAddress:   types.Address{FirstName: "Ada", LastName: "Obi", Line1: "12 Allen Ave", City: "Lagos", PostalCode: "100001", Country: "NG"},
		Status:            orders.StatusProcessing,
		PaymentStatus:     enums.PaymentStatusPaid,
		FulfillmentStatus: enums.FulfillmentStatusProcessing,
		SupplierOrderID:   &supplierOrderID,
	}
	created, err := fx.orders.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func lastLog(t *testing.T, fx *syncFixture, automationType enums.AutomationType) models.AutomationLog {
	t.Helper()

	rows, err := fx.logs.List(context.Background(), automation.ListFilter{AutomationType: &automationType})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	return rows[0]
}

func TestSyncInventoryUpdatesStockStatus(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	gone := fx.seedProduct(t, "ae-1", "10.00")
	still := fx.seedProduct(t, "ae-2", "10.00")
	fx.catalog.products["ae-1"] = &suppliers.Product{SupplierProductID: "ae-1", Cost: decimal.RequireFromString("10.00"), InStock: false}
	fx.catalog.products["ae-2"] = &suppliers.Product{SupplierProductID: "ae-2", Cost: decimal.RequireFromString("10.00"), InStock: true}

	summary, err := fx.svc.SyncInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Empty(t, summary.Errors)

	updated, err := fx.products.FindByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StockStatusOutOfStock, updated.StockStatus)
	assert.Equal(t, enums.SyncStatusSynced, updated.SyncStatus)
	require.NotNil(t, updated.LastSyncedAt)

	unchanged, err := fx.products.FindByID(ctx, still.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StockStatusInStock, unchanged.StockStatus)

	logRow := lastLog(t, fx, enums.AutomationInventorySync)
	assert.Equal(t, enums.AutomationStatusCompleted, logRow.Status)
	assert.EqualValues(t, 1, logRow.Details["updated"])
}

func TestSyncInventoryCollectsPerItemErrors(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	broken := fx.seedProduct(t, "ae-broken", "10.00")
	fine := fx.seedProduct(t, "ae-fine", "10.00")
	fx.catalog.errs["ae-broken"] = errors.New("upstream 500")
	fx.catalog.products["ae-fine"] = &suppliers.Product{SupplierProductID: "ae-fine", Cost: decimal.RequireFromString("10.00"), InStock: false}

	summary, err := fx.svc.SyncInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "ae-broken")

	// the failing item is marked, the batch and log still complete
	errored, err := fx.products.FindByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SyncStatusError, errored.SyncStatus)

	synced, err := fx.products.FindByID(ctx, fine.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SyncStatusSynced, synced.SyncStatus)

	logRow := lastLog(t, fx, enums.AutomationInventorySync)
	assert.Equal(t, enums.AutomationStatusCompleted, logRow.Status)
	assert.EqualValues(t, 1, logRow.Details["errors"])
}

func TestSyncPricesRepricesThroughMarkupEngine(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	product := fx.seedProduct(t, "ae-1", "10.00")
	fx.catalog.products["ae-1"] = &suppliers.Product{SupplierProductID: "ae-1", Cost: decimal.RequireFromString("6.00"), InStock: true}

	summary, err := fx.svc.SyncPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	repriced, err := fx.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "6", repriced.SupplierCost.String())
	// final price is always cost times the recomputed multiplier
	assert.Equal(t, repriced.SupplierCost.Mul(repriced.MarkupMultiplier).Round(2).String(), repriced.FinalPrice.String())
}

func TestSyncPricesSkipsUnchangedCost(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	product := fx.seedProduct(t, "ae-1", "10.00")
	fx.catalog.products["ae-1"] = &suppliers.Product{SupplierProductID: "ae-1", Cost: product.SupplierCost, InStock: true}

	summary, err := fx.svc.SyncPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Updated)

	repriced, err := fx.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "2", repriced.MarkupMultiplier.String())
	assert.Equal(t, enums.SyncStatusSynced, repriced.SyncStatus)
}

func TestSyncTrackingRecordsShipment(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	product := fx.seedProduct(t, "ae-1", "10.00")
	order := fx.seedShippedOrder(t, product.ID, "sup-77")
	fx.catalog.statuses["sup-77"] = &suppliers.OrderStatus{
		Status:         "shipped",
		TrackingNumber: "TRK-001",
		TrackingURL:    "https://track.example.com/TRK-001",
	}

	summary, err := fx.svc.SyncTracking(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)

	refreshed, err := fx.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.FulfillmentStatusShipped, refreshed.FulfillmentStatus)
	require.NotNil(t, refreshed.TrackingNumber)
	assert.Equal(t, "TRK-001", *refreshed.TrackingNumber)
	require.NotNil(t, refreshed.TrackingURL)

	logRow := lastLog(t, fx, enums.AutomationTrackingSync)
	assert.Equal(t, enums.AutomationStatusCompleted, logRow.Status)
}

func TestSyncTrackingSupplierFailureDoesNotAbortBatch(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	product := fx.seedProduct(t, "ae-1", "10.00")
	fx.seedShippedOrder(t, product.ID, "sup-broken")
	healthy := fx.seedShippedOrder(t, product.ID, "sup-ok")
	fx.catalog.errs["sup-broken"] = errors.New("upstream timeout")
	fx.catalog.statuses["sup-ok"] = &suppliers.OrderStatus{Status: "shipped", TrackingNumber: "TRK-002"}

	summary, err := fx.svc.SyncTracking(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	require.Len(t, summary.Errors, 1)

	refreshed, err := fx.orders.FindByID(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.FulfillmentStatusShipped, refreshed.FulfillmentStatus)
}
