package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

// OrderPaidEvent is emitted when payment reconciliation marks an order paid.
// The fulfillment worker consumes it to place the supplier order.
type OrderPaidEvent struct {
	OrderID     uuid.UUID             `json:"order_id"`
	OrderNumber string                `json:"order_number"`
	Provider    enums.PaymentProvider `json:"provider"`
	Amount      decimal.Decimal       `json:"amount"`
	Currency    enums.Currency        `json:"currency"`
	PaidAt      time.Time             `json:"paid_at"`
}

// OrderPaymentFailedEvent is emitted when a provider reports a terminal failure.
type OrderPaymentFailedEvent struct {
	OrderID     uuid.UUID             `json:"order_id"`
	OrderNumber string                `json:"order_number"`
	Provider    enums.PaymentProvider `json:"provider"`
	Reason      string                `json:"reason,omitempty"`
	FailedAt    time.Time             `json:"failed_at"`
}

// OrderFulfilledEvent surfaces the supplier order details once placement completes.
type OrderFulfilledEvent struct {
	OrderID         uuid.UUID          `json:"order_id"`
	OrderNumber     string             `json:"order_number"`
	Supplier        enums.SupplierType `json:"supplier"`
	SupplierOrderID string             `json:"supplier_order_id"`
	FulfilledAt     time.Time          `json:"fulfilled_at"`
}

// ProductImportedEvent reports a catalog entry created from a supplier listing.
type ProductImportedEvent struct {
	ProductID  uuid.UUID          `json:"product_id"`
	Supplier   enums.SupplierType `json:"supplier"`
	Category   string             `json:"category"`
	ImportedAt time.Time          `json:"imported_at"`
}
