package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
)

// PaymentSession records one initialized payment attempt with a provider.
// An order gains additional rows only when payment is retried.
type PaymentSession struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	Provider          enums.PaymentProvider `gorm:"column:provider;not null"`
	ProviderPaymentID string                `gorm:"column:provider_payment_id;not null;index"`
	Status            string                `gorm:"column:status;not null;default:'initialized'"`
	Amount            decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	PayCurrency       enums.Currency        `gorm:"column:pay_currency;not null"`
	AmountPaid        *decimal.Decimal      `gorm:"column:amount_paid;type:numeric(18,8)"`
	RedirectURL       string                `gorm:"column:redirect_url"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
