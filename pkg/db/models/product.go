package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

// Product is a catalog entry imported from a supplier.
//
// FinalPrice is always derived from SupplierCost and MarkupMultiplier through
// pricing.CalculateFinalPrice; it is never written independently of its inputs.
type Product struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Supplier          enums.SupplierType `gorm:"column:supplier;not null"`
	SupplierProductID string             `gorm:"column:supplier_product_id;not null"`
	Title             string             `gorm:"column:title;not null"`
	Description       string             `gorm:"column:description"`
	Images            pq.StringArray     `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Category          string             `gorm:"column:category;not null;default:'default'"`
	SupplierCost      decimal.Decimal    `gorm:"column:supplier_cost;type:numeric(12,2);not null"`
	MarkupMultiplier  decimal.Decimal    `gorm:"column:markup_multiplier;type:numeric(6,2);not null"`
	FinalPrice        decimal.Decimal    `gorm:"column:final_price;type:numeric(12,2);not null"`
	Currency          enums.Currency     `gorm:"column:currency;not null;default:'NGN'"`
	StockStatus       enums.StockStatus  `gorm:"column:stock_status;not null;default:'in_stock'"`
	Variants          []ProductVariant   `gorm:"column:variants;type:jsonb;serializer:json"`
	TrendingScore     *float64           `gorm:"column:trending_score;type:numeric(4,3)"`
	SalesVelocity     *float64           `gorm:"column:sales_velocity;type:numeric(8,2)"`
	SyncStatus        enums.SyncStatus   `gorm:"column:sync_status;not null;default:'pending'"`
	LastSyncedAt      *time.Time         `gorm:"column:last_synced_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is an embedded per-variant entry stored in the jsonb column.
type ProductVariant struct {
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Price      decimal.Decimal   `json:"price"`
	Inventory  int               `json:"inventory"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
