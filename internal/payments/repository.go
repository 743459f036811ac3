package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

// Payment session lifecycle states.
const (
	SessionInitialized = "initialized"
	SessionPaid        = "paid"
	SessionFailed      = "failed"
)

// Repository persists payment sessions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the session row.
func (r *Repository) Create(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindByProviderPaymentID resolves a session from the provider reference.
func (r *Repository) FindByProviderPaymentID(ctx context.Context, provider enums.PaymentProvider, providerPaymentID string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_payment_id = ?", provider, providerPaymentID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// FindLatestByOrder returns the most recent session for an order.
func (r *Repository) FindLatestByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// MarkPaid stamps the session as settled with the amount received.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.PaymentSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      SessionPaid,
			"amount_paid": amountPaid,
			"updated_at":  time.Now(),
		}).Error
}

// MarkFailed stamps the session as failed.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.PaymentSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     SessionFailed,
			"updated_at": time.Now(),
		}).Error
}
