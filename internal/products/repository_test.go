package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/pagination"
)

func mustCreateProduct(t *testing.T, db *gorm.DB, supplier enums.SupplierType, supplierProductID string, createdAt time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                uuid.New(),
		Supplier:          supplier,
		SupplierProductID: supplierProductID,
		Title:             "Test Product " + supplierProductID,
		Images:            []string{"https://img/1.jpg"},
		Category:          "default",
		SupplierCost:      decimal.RequireFromString("10.00"),
		MarkupMultiplier:  decimal.RequireFromString("2.00"),
		FinalPrice:        decimal.RequireFromString("20.00"),
		Currency:          enums.CurrencyNGN,
		StockStatus:       enums.StockStatusInStock,
		SyncStatus:        enums.SyncStatusPending,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryFindByID(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := mustCreateProduct(t, db, enums.SupplierAliExpress, "ae-1", time.Now())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.SupplierProductID, found.SupplierProductID)
	assert.True(t, found.FinalPrice.Equal(decimal.RequireFromString("20.00")))

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryFindBySupplierProduct(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	mustCreateProduct(t, db, enums.SupplierCJ, "cj-9", time.Now())

	found, err := repo.FindBySupplierProduct(ctx, enums.SupplierCJ, "cj-9")
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.FindBySupplierProduct(ctx, enums.SupplierAliExpress, "cj-9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryListPagePaginates(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		mustCreateProduct(t, db, enums.SupplierAliExpress, uuid.NewString(), base.Add(time.Duration(i)*time.Minute))
	}

	first, cursor, err := repo.ListPage(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotEmpty(t, cursor)

	second, next, err := repo.ListPage(ctx, pagination.Params{Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Empty(t, next)

	// newest first, no overlap between pages
	seen := map[uuid.UUID]bool{}
	for _, p := range append(first, second...) {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))
}

func TestRepositoryMarkSynced(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := mustCreateProduct(t, db, enums.SupplierAliExpress, "ae-2", time.Now())
	require.NoError(t, repo.MarkSynced(ctx, created.ID, enums.SyncStatusSynced))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SyncStatusSynced, found.SyncStatus)
	assert.NotNil(t, found.LastSyncedAt)
}
