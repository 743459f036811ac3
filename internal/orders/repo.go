package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where(query, arg).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// MarkPaid transitions the order to paid only while payment is still
// pending, so concurrent confirmations resolve to a single winner. The
// bool reports whether this call performed the transition.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"status":         StatusPaid,
			"updated_at":     time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

// MarkPaymentFailed follows the same single-winner pattern as MarkPaid.
func (r *repository) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"status":         StatusPaymentFailed,
			"updated_at":     time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MarkFulfilled(ctx context.Context, id uuid.UUID, supplierOrderID string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":             StatusProcessing,
			"fulfillment_status": enums.FulfillmentStatusProcessing,
			"supplier_order_id":  supplierOrderID,
			"updated_at":         time.Now(),
		}).Error
}

func (r *repository) UpdateTracking(ctx context.Context, id uuid.UUID, trackingNumber, trackingURL *string, status enums.FulfillmentStatus) error {
	updates := map[string]any{
		"fulfillment_status": status,
		"updated_at":         time.Now(),
	}
	if trackingNumber != nil {
		updates["tracking_number"] = *trackingNumber
	}
	if trackingURL != nil {
		updates["tracking_url"] = *trackingURL
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListPendingPaymentBefore returns stale unpaid orders for the TTL sweep.
func (r *repository) ListPendingPaymentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := r.db.WithContext(ctx).
		Where("payment_status = ? AND created_at < ?", enums.PaymentStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}

// ListAwaitingTracking returns fulfilled orders whose shipment is still in
// flight, the working set for the tracking sync job.
func (r *repository) ListAwaitingTracking(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("supplier_order_id IS NOT NULL AND fulfillment_status IN ?",
			[]enums.FulfillmentStatus{enums.FulfillmentStatusProcessing, enums.FulfillmentStatusShipped}).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
