package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/internal/automation"
	"github.com/Stan-lee13/auracart-ng/internal/orders"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	"github.com/Stan-lee13/auracart-ng/pkg/db"
	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox/payloads"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

// Service places supplier orders for paid customer orders.
type Service interface {
	FulfillOrder(ctx context.Context, orderID uuid.UUID) error
}

type orderPlacer interface {
	CreateOrder(ctx context.Context, supplierType enums.SupplierType, req suppliers.OrderRequest) (*suppliers.OrderResult, error)
}

type productReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	DBClient *db.Client
	Orders   orders.Repository
	Products productReader
	Logs     *automation.Repository
	Manager  orderPlacer
	Outbox   outboxEmitter
	Logger   *logger.Logger
}

type service struct {
	db       *db.Client
	orders   orders.Repository
	products productReader
	logs     *automation.Repository
	manager  orderPlacer
	outbox   outboxEmitter
	logg     *logger.Logger
}

// NewService constructs the fulfillment orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.DBClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("automation repository required")
	}
	if params.Manager == nil {
		return nil, fmt.Errorf("supplier manager required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:       params.DBClient,
		orders:   params.Orders,
		products: params.Products,
		logs:     params.Logs,
		manager:  params.Manager,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

// FulfillOrder places the supplier order for a paid order exactly once.
// The automation log row is the gate: a running or completed row means a
// previous invocation owns this order, and the call becomes a no-op.
// Failures close the log row as failed, reopening the gate for a retry.
func (s *service) FulfillOrder(ctx context.Context, orderID uuid.UUID) error {
	logCtx := s.logg.WithField(ctx, "order_id", orderID.String())

	gate, err := s.logs.FindGate(ctx, orderID, enums.AutomationOrderFulfillment)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check fulfillment gate")
	}
	if gate != nil {
		s.logg.Info(logCtx, "fulfillment already handled, skipping")
		return nil
	}

	logRow, err := s.logs.Start(ctx, enums.AutomationOrderFulfillment, &orderID, nil)
	if err != nil {
		if errors.Is(err, automation.ErrAlreadyRunning) {
			s.logg.Info(logCtx, "fulfillment gate lost to concurrent run, skipping")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: open fulfillment gate")
	}

	if err := s.fulfill(logCtx, logRow.ID, orderID); err != nil {
		if markErr := s.logs.MarkFailed(ctx, logRow.ID, err.Error()); markErr != nil {
			s.logg.Error(logCtx, "closing failed fulfillment log", markErr)
		}
		return err
	}
	return nil
}

func (s *service) fulfill(ctx context.Context, logID, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order == nil {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "order not found: %s", orderID)
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "order %s is not paid", order.OrderNumber)
	}

	supplier, request, err := s.buildRequest(ctx, order)
	if err != nil {
		return err
	}

	result, err := s.manager.CreateOrder(ctx, supplier, request)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "placing supplier order")
	}

	fulfilledAt := time.Now()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).MarkFulfilled(ctx, order.ID, result.OrderID); err != nil {
			return err
		}
		if err := s.logs.WithTx(tx).MarkCompleted(ctx, logID, types.JSONMap{
			"supplier":          string(supplier),
			"supplier_order_id": result.OrderID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFulfilled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderFulfilledEvent{
				OrderID:         order.ID,
				OrderNumber:     order.OrderNumber,
				Supplier:        supplier,
				SupplierOrderID: result.OrderID,
				FulfilledAt:     fulfilledAt,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: record fulfillment")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_number":      order.OrderNumber,
		"supplier":          supplier,
		"supplier_order_id": result.OrderID,
	}), "order fulfilled with supplier")
	return nil
}

// buildRequest maps the order snapshot onto supplier order lines. Items must
// all come from the same supplier; mixed-supplier orders are rejected before
// any external call.
func (s *service) buildRequest(ctx context.Context, order *models.Order) (enums.SupplierType, suppliers.OrderRequest, error) {
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return "", suppliers.OrderRequest{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order products")
	}

	var supplier enums.SupplierType
	items := make([]suppliers.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		product, ok := catalog[item.ProductID]
		if !ok {
			return "", suppliers.OrderRequest{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "product not found: %s", item.ProductID)
		}
		if supplier == "" {
			supplier = product.Supplier
		} else if supplier != product.Supplier {
			return "", suppliers.OrderRequest{}, pkgerrors.Newf(pkgerrors.CodeValidation,
				"order %s mixes suppliers %s and %s", order.OrderNumber, supplier, product.Supplier)
		}
		line := suppliers.OrderItem{
			SupplierProductID: product.SupplierProductID,
			Quantity:          item.Quantity,
		}
		if item.VariantID != nil {
			line.VariantSKU = *item.VariantID
		}
		items = append(items, line)
	}

	return supplier, suppliers.OrderRequest{
		Items:       items,
		Address:     order.ShippingAddress,
		Email:       order.Email,
		ExternalRef: order.OrderNumber,
	}, nil
}
