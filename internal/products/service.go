package products

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/internal/pricing"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	"github.com/Stan-lee13/auracart-ng/pkg/db"
	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox/payloads"
	"github.com/Stan-lee13/auracart-ng/pkg/pagination"
)

// Service exposes catalog read and import operations.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ImportFromSupplier(ctx context.Context, input ImportInput) (*models.Product, error)
}

// ListResult is one page of catalog products.
type ListResult struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ImportInput creates a catalog entry from a supplier listing.
type ImportInput struct {
	Supplier          enums.SupplierType
	SupplierProductID string
	Currency          enums.Currency
	TrendingScore     *float64
	SalesVelocity     *float64
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type supplierCatalog interface {
	GetProduct(ctx context.Context, supplierType enums.SupplierType, supplierProductID string) (*suppliers.Product, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Repo     *Repository
	DBClient *db.Client
	Manager  supplierCatalog
	Outbox   outboxEmitter
	Logger   *logger.Logger
}

type service struct {
	repo    *Repository
	db      *db.Client
	manager supplierCatalog
	outbox  outboxEmitter
	logg    *logger.Logger
}

// NewService constructs the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.DBClient == nil {
		return nil, fmt.Errorf("db client required")
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
		repo:    params.Repo,
		db:      params.DBClient,
		manager: params.Manager,
		outbox:  params.Outbox,
		logg:    params.Logger,
	}, nil
}

// List returns a cursor page of products.
func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, next, err := s.repo.ListPage(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return &ListResult{Products: rows, NextCursor: next}, nil
}

// Get loads one product.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if product == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product not found: %s", id)
	}
	return product, nil
}

// ImportFromSupplier fetches the supplier listing, prices it through the
// markup engine, and creates the catalog row. Re-importing an existing
// listing refreshes cost and price instead of duplicating it.
func (s *service) ImportFromSupplier(ctx context.Context, input ImportInput) (*models.Product, error) {
	if !input.Supplier.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid supplier %q", input.Supplier)
	}
	if input.SupplierProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier product id is required")
	}

	listing, err := s.manager.GetProduct(ctx, input.Supplier, input.SupplierProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching supplier listing")
	}

	category := pricing.DetectCategory(listing.Title, listing.Description)
	multiplier := pricing.CalculateMarkup(listing.Cost, category, &pricing.Metadata{
		TrendingScore: input.TrendingScore,
		SalesVelocity: input.SalesVelocity,
	})
	finalPrice := pricing.CalculateFinalPrice(listing.Cost, multiplier)

	currency := input.Currency
	if !currency.IsValid() {
		currency = enums.CurrencyNGN
	}

	existing, err := s.repo.FindBySupplierProduct(ctx, input.Supplier, input.SupplierProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load existing product")
	}

	variants := make([]models.ProductVariant, 0, len(listing.Variants))
	for _, v := range listing.Variants {
		variants = append(variants, models.ProductVariant{
			SKU:        v.SKU,
			Name:       v.Name,
			Price:      pricing.CalculateFinalPrice(v.Price, multiplier),
			Inventory:  v.Inventory,
			Attributes: v.Attributes,
		})
	}

	stockStatus := enums.StockStatusOutOfStock
	if listing.InStock {
		stockStatus = enums.StockStatusInStock
	}

	if existing != nil {
		existing.Title = listing.Title
		existing.Description = listing.Description
		existing.Images = listing.Images
		existing.Category = category
		existing.SupplierCost = listing.Cost
		existing.MarkupMultiplier = multiplier
		existing.FinalPrice = finalPrice
		existing.StockStatus = stockStatus
		existing.Variants = variants
		existing.TrendingScore = input.TrendingScore
		existing.SalesVelocity = input.SalesVelocity
		existing.SyncStatus = enums.SyncStatusSynced
		now := time.Now()
		existing.LastSyncedAt = &now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: refresh product")
		}
		return existing, nil
	}

	now := time.Now()
	product := &models.Product{
		ID:                uuid.New(),
		Supplier:          input.Supplier,
		SupplierProductID: input.SupplierProductID,
		Title:             listing.Title,
		Description:       listing.Description,
		Images:            listing.Images,
		Category:          category,
		SupplierCost:      listing.Cost,
		MarkupMultiplier:  multiplier,
		FinalPrice:        finalPrice,
		Currency:          currency,
		StockStatus:       stockStatus,
		Variants:          variants,
		TrendingScore:     input.TrendingScore,
		SalesVelocity:     input.SalesVelocity,
		SyncStatus:        enums.SyncStatusSynced,
		LastSyncedAt:      &now,
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		created, err := txRepo.Create(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductImported,
			AggregateType: enums.AggregateProduct,
			AggregateID:   created.ID,
			Data: payloads.ProductImportedEvent{
				ProductID:  created.ID,
				Supplier:   input.Supplier,
				Category:   category,
				ImportedAt: now,
			},
		})
	}); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": product.ID.String(),
		"supplier":   input.Supplier,
		"category":   category,
	})
	s.logg.Info(logCtx, "product imported from supplier")
	return product, nil
}
