package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

// AutomationLog is the append-only audit row per long-running operation.
//
// A partial unique index on (order_id, automation_type) where status is not
// 'failed' makes the fulfillment idempotency gate a single-winner insert.
// Rows are never mutated after reaching completed or failed, except by the
// operation that owns them.
type AutomationLog struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AutomationType enums.AutomationType   `gorm:"column:automation_type;not null"`
	Status         enums.AutomationStatus `gorm:"column:status;not null;default:'running'"`
	OrderID        *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Details        types.JSONMap          `gorm:"column:details;type:jsonb;serializer:json"`
	ErrorMessage   *string                `gorm:"column:error_message"`
	StartedAt      time.Time              `gorm:"column:started_at;autoCreateTime"`
	CompletedAt    *time.Time             `gorm:"column:completed_at"`
}
