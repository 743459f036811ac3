package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

// TrackingView is the customer-facing projection of an order looked up by
// its order number. It never exposes internal ids or supplier references.
type TrackingView struct {
	OrderNumber       string                  `json:"order_number"`
	Status            string                  `json:"status"`
	PaymentStatus     enums.PaymentStatus     `json:"payment_status"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillment_status"`
	Items             []TrackingItem          `json:"items"`
	TotalAmount       decimal.Decimal         `json:"total_amount"`
	Currency          enums.Currency          `json:"currency"`
	TrackingNumber    *string                 `json:"tracking_number,omitempty"`
	TrackingURL       *string                 `json:"tracking_url,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// TrackingItem is one snapshot line in the tracking view.
type TrackingItem struct {
	Title     string          `json:"title"`
	SKU       string          `json:"sku,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func newTrackingView(order *models.Order) *TrackingView {
	items := make([]TrackingItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, TrackingItem{
			Title:     item.Title,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		})
	}
	return &TrackingView{
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		Items:             items,
		TotalAmount:       order.TotalAmount,
		Currency:          order.Currency,
		TrackingNumber:    order.TrackingNumber,
		TrackingURL:       order.TrackingURL,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}
