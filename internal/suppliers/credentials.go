package suppliers

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Stan-lee13/auracart-ng/internal/repo"
	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

// CredentialSource provides per-supplier API tokens obtained out of band.
type CredentialSource interface {
	AccessToken(ctx context.Context, supplierType enums.SupplierType) (string, error)
}

// ErrCredentialNotFound is returned when no token is stored for a supplier.
var ErrCredentialNotFound = errors.New("supplier credential not found")

// CredentialRepo persists supplier tokens in the supplier_credentials table.
type CredentialRepo struct {
	repo.Base
}

// NewCredentialRepo builds the repository on the shared connection.
func NewCredentialRepo(db *gorm.DB) *CredentialRepo {
	return &CredentialRepo{Base: repo.NewBase(db)}
}

// AccessToken returns the stored token for the supplier, rejecting expired ones.
func (r *CredentialRepo) AccessToken(ctx context.Context, supplierType enums.SupplierType) (string, error) {
	var credential models.SupplierCredential
	err := r.DB(ctx).Where("supplier_type = ?", supplierType).First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCredentialNotFound
		}
		return "", err
	}
	if credential.ExpiresAt != nil && credential.ExpiresAt.Before(time.Now()) {
		return "", errors.New("supplier credential expired")
	}
	return credential.AccessToken, nil
}

// Upsert stores or replaces the token for the supplier.
func (r *CredentialRepo) Upsert(ctx context.Context, credential models.SupplierCredential) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "supplier_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "expires_at", "updated_at",
		}),
	}).Create(&credential).Error
}
