package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Stan-lee13/auracart-ng/internal/orders"
	"github.com/Stan-lee13/auracart-ng/internal/pricing"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/types"

	"github.com/Stan-lee13/auracart-ng/internal/automation"
	"github.com/Stan-lee13/auracart-ng/internal/products"
)

// Summary reports one batch run. Per-item failures land in Errors and never
// abort the batch.
type Summary struct {
	Updated int      `json:"updated"`
	Added   int      `json:"added"`
	Errors  []string `json:"errors,omitempty"`
}

// Service runs the scheduled supplier synchronization jobs.
type Service interface {
	SyncInventory(ctx context.Context) (*Summary, error)
	SyncPrices(ctx context.Context) (*Summary, error)
	SyncTracking(ctx context.Context) (*Summary, error)
}

type catalogSource interface {
	Types() []enums.SupplierType
	GetProduct(ctx context.Context, supplierType enums.SupplierType, supplierProductID string) (*suppliers.Product, error)
	GetOrderStatus(ctx context.Context, supplierType enums.SupplierType, supplierOrderID string) (*suppliers.OrderStatus, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Products *products.Repository
	Orders   orders.Repository
	Logs     *automation.Repository
	Manager  catalogSource
	Logger   *logger.Logger
}

type service struct {
	products *products.Repository
	orders   orders.Repository
	logs     *automation.Repository
	manager  catalogSource
	logg     *logger.Logger
}

// NewService constructs the sync service.
func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("automation repository required")
	}
	if params.Manager == nil {
		return nil, fmt.Errorf("supplier manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		products: params.Products,
		orders:   params.Orders,
		logs:     params.Logs,
		manager:  params.Manager,
		logg:     params.Logger,
	}, nil
}

// SyncInventory refreshes stock status from every configured supplier.
func (s *service) SyncInventory(ctx context.Context) (*Summary, error) {
	return s.runLogged(ctx, enums.AutomationInventorySync, s.syncInventory)
}

// SyncPrices refetches supplier costs and reprices changed products through
// the markup engine.
func (s *service) SyncPrices(ctx context.Context) (*Summary, error) {
	return s.runLogged(ctx, enums.AutomationPriceSync, s.syncPrices)
}

// SyncTracking polls suppliers for shipment progress on in-flight orders.
func (s *service) SyncTracking(ctx context.Context) (*Summary, error) {
	return s.runLogged(ctx, enums.AutomationTrackingSync, s.syncTracking)
}

// runLogged wraps a batch in an automation log row. The row closes failed
// only when the batch could not run at all; per-item errors still complete.
func (s *service) runLogged(ctx context.Context, automationType enums.AutomationType, fn func(context.Context) (*Summary, error)) (*Summary, error) {
	logRow, err := s.logs.Start(ctx, automationType, nil, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: open automation log")
	}

	logCtx := s.logg.WithJob(ctx, string(automationType))
	summary, err := fn(logCtx)
	if err != nil {
		if markErr := s.logs.MarkFailed(ctx, logRow.ID, err.Error()); markErr != nil {
			s.logg.Error(logCtx, "closing failed automation log", markErr)
		}
		return nil, err
	}

	details := types.JSONMap{
		"updated": summary.Updated,
		"added":   summary.Added,
		"errors":  len(summary.Errors),
	}
	if err := s.logs.MarkCompleted(ctx, logRow.ID, details); err != nil {
		s.logg.Error(logCtx, "closing automation log", err)
	}
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"updated": summary.Updated,
		"errors":  len(summary.Errors),
	}), "sync job finished")
	return summary, nil
}

func (s *service) syncInventory(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	var batchErr error

	for _, supplierType := range s.manager.Types() {
		rows, err := s.products.ListBySupplier(ctx, supplierType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products for supplier")
		}
		for i := range rows {
			product := &rows[i]
			listing, err := s.manager.GetProduct(ctx, supplierType, product.SupplierProductID)
			if err != nil {
				batchErr = multierr.Append(batchErr, fmt.Errorf("%s/%s: %w", supplierType, product.SupplierProductID, err))
				if markErr := s.products.MarkSynced(ctx, product.ID, enums.SyncStatusError); markErr != nil {
					s.logg.Error(ctx, "marking product sync error", markErr)
				}
				continue
			}

			stock := enums.StockStatusOutOfStock
			if listing.InStock {
				stock = enums.StockStatusInStock
			}
			if product.StockStatus != stock {
				product.StockStatus = stock
				summary.Updated++
			}
			product.SyncStatus = enums.SyncStatusSynced
			now := time.Now()
			product.LastSyncedAt = &now
			if err := s.products.Update(ctx, product); err != nil {
				batchErr = multierr.Append(batchErr, fmt.Errorf("%s/%s: %w", supplierType, product.SupplierProductID, err))
			}
		}
	}

	summary.Errors = errorStrings(batchErr)
	return summary, nil
}

func (s *service) syncPrices(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	var batchErr error

	for _, supplierType := range s.manager.Types() {
		rows, err := s.products.ListBySupplier(ctx, supplierType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products for supplier")
		}
		for i := range rows {
			product := &rows[i]
			listing, err := s.manager.GetProduct(ctx, supplierType, product.SupplierProductID)
			if err != nil {
				batchErr = multierr.Append(batchErr, fmt.Errorf("%s/%s: %w", supplierType, product.SupplierProductID, err))
				continue
			}
			if s.reprice(product, listing) {
				summary.Updated++
			}
			product.SyncStatus = enums.SyncStatusSynced
			now := time.Now()
			product.LastSyncedAt = &now
			if err := s.products.Update(ctx, product); err != nil {
				batchErr = multierr.Append(batchErr, fmt.Errorf("%s/%s: %w", supplierType, product.SupplierProductID, err))
			}
		}
	}

	summary.Errors = errorStrings(batchErr)
	return summary, nil
}

// reprice recomputes the multiplier and final price from a fresh cost.
// All price derivation flows through the one pricing path.
func (s *service) reprice(product *models.Product, listing *suppliers.Product) bool {
	multiplier := pricing.CalculateMarkup(listing.Cost, product.Category, &pricing.Metadata{
		TrendingScore: product.TrendingScore,
		SalesVelocity: product.SalesVelocity,
	})
	finalPrice := pricing.CalculateFinalPrice(listing.Cost, multiplier)

	changed := !product.SupplierCost.Equal(listing.Cost) ||
		!product.MarkupMultiplier.Equal(multiplier) ||
		!product.FinalPrice.Equal(finalPrice)
	if changed {
		product.SupplierCost = listing.Cost
		product.MarkupMultiplier = multiplier
		product.FinalPrice = finalPrice
	}
	return changed
}

func (s *service) syncTracking(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	var batchErr error

	rows, err := s.orders.ListAwaitingTracking(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders awaiting tracking")
	}

	for i := range rows {
		order := &rows[i]
		supplier, err := s.supplierForOrder(ctx, order)
		if err != nil {
			batchErr = multierr.Append(batchErr, fmt.Errorf("%s: %w", order.OrderNumber, err))
			continue
		}
		status, err := s.manager.GetOrderStatus(ctx, supplier, *order.SupplierOrderID)
		if err != nil {
			batchErr = multierr.Append(batchErr, fmt.Errorf("%s: %w", order.OrderNumber, err))
			continue
		}

		fulfillment := order.FulfillmentStatus
		if status.Status == "shipped" || status.TrackingNumber != "" {
			fulfillment = enums.FulfillmentStatusShipped
		}
		if status.Status == "delivered" {
			fulfillment = enums.FulfillmentStatusDelivered
		}

		var trackingNumber, trackingURL *string
		if status.TrackingNumber != "" {
			trackingNumber = &status.TrackingNumber
		}
		if status.TrackingURL != "" {
			trackingURL = &status.TrackingURL
		}
		if fulfillment == order.FulfillmentStatus && trackingNumber == nil && trackingURL == nil {
			continue
		}
		if err := s.orders.UpdateTracking(ctx, order.ID, trackingNumber, trackingURL, fulfillment); err != nil {
			batchErr = multierr.Append(batchErr, fmt.Errorf("%s: %w", order.OrderNumber, err))
			continue
		}
		summary.Updated++
	}

	summary.Errors = errorStrings(batchErr)
	return summary, nil
}

// supplierForOrder resolves which supplier an order was placed with.
// Fulfillment rejects mixed-supplier orders, so the first item's catalog
// entry is authoritative.
func (s *service) supplierForOrder(ctx context.Context, order *models.Order) (enums.SupplierType, error) {
	if len(order.Items) == 0 {
		return "", fmt.Errorf("order has no items")
	}
	product, err := s.products.FindByID(ctx, order.Items[0].ProductID)
	if err != nil {
		return "", err
	}
	if product == nil {
		return "", fmt.Errorf("product %s no longer in catalog", order.Items[0].ProductID)
	}
	return product.Supplier, nil
}

func errorStrings(err error) []string {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
