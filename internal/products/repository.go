package products

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/pagination"
)

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product or returns nil when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the given products keyed by id; missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// FindBySupplierProduct returns the catalog row for a supplier listing, if imported.
func (r *Repository) FindBySupplierProduct(ctx context.Context, supplier enums.SupplierType, supplierProductID string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("supplier = ? AND supplier_product_id = ?", supplier, supplierProductID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create inserts the product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves all mutable columns of the product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// ListBySupplier returns every product imported from the given supplier.
func (r *Repository) ListBySupplier(ctx context.Context, supplier enums.SupplierType) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("supplier = ?", supplier).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListPage returns a cursor page of in-catalog products, newest first.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	page, next := pagination.TrimPage(rows, limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}

// MarkSynced stamps the sync bookkeeping columns.
func (r *Repository) MarkSynced(ctx context.Context, id uuid.UUID, status enums.SyncStatus) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status":    status,
			"last_synced_at": now,
		}).Error
}
