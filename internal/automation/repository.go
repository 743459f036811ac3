package automation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/pkg/db"
	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

// ErrAlreadyRunning is returned when another run already holds the gate for
// the same order and automation type.
var ErrAlreadyRunning = errors.New("automation already running or completed for order")

// uniqueGateIndex matches the partial unique index on automation_logs.
const uniqueGateIndex = "ux_automation_logs_order_type"

// Repository persists automation audit rows.
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

// Start inserts a running log row. For order-scoped runs the partial unique
// index makes concurrent starts a single-winner insert; losers receive
// ErrAlreadyRunning.
func (r *Repository) Start(ctx context.Context, automationType enums.AutomationType, orderID *uuid.UUID, details types.JSONMap) (*models.AutomationLog, error) {
	row := &models.AutomationLog{
		ID:             uuid.New(),
		AutomationType: automationType,
		Status:         enums.AutomationStatusRunning,
		OrderID:        orderID,
		Details:        details,
		StartedAt:      time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if db.IsUniqueViolation(err, uniqueGateIndex) || db.IsUniqueViolation(err, "") {
			return nil, ErrAlreadyRunning
		}
		return nil, err
	}
	return row, nil
}

// MarkCompleted closes the run as successful, merging extra details.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, details types.JSONMap) error {
	updates := map[string]any{
		"status":       enums.AutomationStatusCompleted,
		"completed_at": time.Now(),
	}
	if details != nil {
		updates["details"] = details
	}
	return r.db.WithContext(ctx).Model(&models.AutomationLog{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkFailed closes the run as failed with the error message. A failed row
// falls outside the partial unique index, freeing the gate for a retry.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return r.db.WithContext(ctx).Model(&models.AutomationLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.AutomationStatusFailed,
			"error_message": message,
			"completed_at":  time.Now(),
		}).Error
}

// FindGate returns the non-failed row holding the gate for the order and
// automation type, or nil when the gate is open.
func (r *Repository) FindGate(ctx context.Context, orderID uuid.UUID, automationType enums.AutomationType) (*models.AutomationLog, error) {
	var row models.AutomationLog
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND automation_type = ? AND status <> ?",
			orderID, automationType, enums.AutomationStatusFailed).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListFilter narrows the admin log listing.
type ListFilter struct {
	AutomationType *enums.AutomationType
	Status         *enums.AutomationStatus
	OrderID        *uuid.UUID
	Limit          int
}

// List returns recent automation rows, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.AutomationLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if filter.AutomationType != nil {
		query = query.Where("automation_type = ?", *filter.AutomationType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	var rows []models.AutomationLog
	err := query.Find(&rows).Error
	return rows, err
}
