package suppliers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

// SearchParams are the canonical product search inputs.
type SearchParams struct {
	Query    string
	Page     int
	PageSize int
}

// Variant is one purchasable option of a supplier listing.
type Variant struct {
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Price      decimal.Decimal   `json:"price"`
	Inventory  int               `json:"inventory"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Product is the canonical supplier listing shape. Each client converts its
// wire format into this at its own boundary; provider-specific shapes never
// cross into the manager.
type Product struct {
	Supplier          enums.SupplierType `json:"supplier"`
	SupplierProductID string             `json:"supplier_product_id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Images            []string           `json:"images"`
	Cost              decimal.Decimal    `json:"cost"`
	Currency          string             `json:"currency"`
	ShippingCost      decimal.Decimal    `json:"shipping_cost"`
	DeliveryEstimate  string             `json:"delivery_estimate"`
	InStock           bool               `json:"in_stock"`
	Variants          []Variant          `json:"variants,omitempty"`
}

// SearchResult is one supplier's page of search hits.
type SearchResult struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"has_more"`
}

// OrderItem is one line of a supplier order request.
type OrderItem struct {
	SupplierProductID string `json:"supplier_product_id"`
	VariantSKU        string `json:"variant_sku,omitempty"`
	Quantity          int    `json:"quantity"`
}

// OrderRequest asks a supplier to ship items to the customer.
type OrderRequest struct {
	Items       []OrderItem   `json:"items"`
	Address     types.Address `json:"address"`
	Email       string        `json:"email"`
	ExternalRef string        `json:"external_ref"`
}

// OrderResult is the supplier's acknowledgment of a placed order.
type OrderResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// OrderStatus is the supplier's view of a placed order.
type OrderStatus struct {
	Status            string `json:"status"`
	TrackingNumber    string `json:"tracking_number,omitempty"`
	TrackingURL       string `json:"tracking_url,omitempty"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
}

// RateLimitInfo reports the client's view of its upstream quota.
type RateLimitInfo struct {
	Remaining int
	ResetTime time.Time
	Limit     int
}

// Supplier is the capability surface every dropshipping integration provides.
type Supplier interface {
	Type() enums.SupplierType
	Name() string
	SearchProducts(ctx context.Context, params SearchParams) (*SearchResult, error)
	GetProduct(ctx context.Context, supplierProductID string) (*Product, error)
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	GetOrderStatus(ctx context.Context, supplierOrderID string) (*OrderStatus, error)
	IsHealthy(ctx context.Context) error
	RateLimitInfo() RateLimitInfo
}
