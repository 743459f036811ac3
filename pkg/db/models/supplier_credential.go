package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

// SupplierCredential stores per-supplier API tokens obtained out of band
// (OAuth for AliExpress, static key exchange for CJ).
type SupplierCredential struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierType enums.SupplierType `gorm:"column:supplier_type;not null;uniqueIndex:ux_supplier_credentials_type"`
	AccessToken  string             `gorm:"column:access_token;not null"`
	RefreshToken *string            `gorm:"column:refresh_token"`
	ExpiresAt    *time.Time         `gorm:"column:expires_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
