package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

// Order is the customer order with a server-computed item snapshot.
type Order struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string                  `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	CustomerSubject   string                  `gorm:"column:customer_subject;not null"`
	Email             string                  `gorm:"column:email;not null"`
	Items             []OrderItem             `gorm:"column:items;type:jsonb;serializer:json;not null"`
	TotalAmount       decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency          enums.Currency          `gorm:"column:currency;not null;default:'NGN'"`
	ShippingAddress   types.Address           `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	Status            string                  `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus     `gorm:"column:payment_status;not null;default:'pending'"`
	FulfillmentStatus enums.FulfillmentStatus `gorm:"column:fulfillment_status;not null;default:'pending'"`
	SupplierOrderID   *string                 `gorm:"column:supplier_order_id"`
	TrackingNumber    *string                 `gorm:"column:tracking_number"`
	TrackingURL       *string                 `gorm:"column:tracking_url"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is the embedded snapshot of a purchased line.
//
// UnitPrice is the authoritative server-side price at checkout time; client
// submitted prices never reach this struct.
type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	VariantID *string         `json:"variant_id,omitempty"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal returns quantity times unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
