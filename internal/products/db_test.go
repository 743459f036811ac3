package products

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	setupProductsSchema(t, db)
	return db
}

func setupProductsSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

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
);`
	require.NoError(t, db.Exec(schema).Error)
}
