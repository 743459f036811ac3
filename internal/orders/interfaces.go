package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

// Repository abstracts order persistence for the services that drive the
// order lifecycle (checkout, reconcile, fulfillment, sync, cron).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFulfilled(ctx context.Context, id uuid.UUID, supplierOrderID string) error
	UpdateTracking(ctx context.Context, id uuid.UUID, trackingNumber, trackingURL *string, status enums.FulfillmentStatus) error
	ListPendingPaymentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ListAwaitingTracking(ctx context.Context) ([]models.Order, error)
}
