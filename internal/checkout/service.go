package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/internal/orders"
	"github.com/Stan-lee13/auracart-ng/internal/payments"
	"github.com/Stan-lee13/auracart-ng/internal/payments/nowpayments"
	"github.com/Stan-lee13/auracart-ng/internal/payments/paystack"
	"github.com/Stan-lee13/auracart-ng/pkg/db"
	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

// ItemInput is one requested line. Quantity is the only client-controlled
// number; prices are recomputed from the catalog.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	VariantID *string   `json:"variant_id"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// Input drives one checkout execution.
type Input struct {
	Subject         string
	Email           string
	Items           []ItemInput
	ShippingAddress types.Address
	Provider        enums.PaymentProvider
	PayCurrency     string
	CallbackURL     string
}

// Result is the payment handoff returned to the client.
type Result struct {
	OrderID     uuid.UUID             `json:"order_id"`
	OrderNumber string                `json:"order_number"`
	Provider    enums.PaymentProvider `json:"provider"`
	Reference   string                `json:"reference"`
	PaymentURL  string                `json:"payment_url"`
	Amount      decimal.Decimal       `json:"amount"`
	Currency    enums.Currency        `json:"currency"`
}

// Service executes checkouts.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
}

type productReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type paystackGateway interface {
	Initialize(ctx context.Context, input paystack.InitializeInput) (*paystack.InitializeResult, error)
}

type nowpaymentsGateway interface {
	CreatePayment(ctx context.Context, input nowpayments.CreatePaymentInput) (*nowpayments.Payment, error)
}

// ServiceParams collects the service dependencies. Gateways may be nil when
// the corresponding provider is not configured.
type ServiceParams struct {
	DBClient    *db.Client
	Products    productReader
	Orders      orders.Repository
	Sessions    *payments.Repository
	Paystack    paystackGateway
	NOWPayments nowpaymentsGateway
	Logger      *logger.Logger
}

type service struct {
	db          *db.Client
	products    productReader
	orders      orders.Repository
	sessions    *payments.Repository
	paystack    paystackGateway
	nowpayments nowpaymentsGateway
	logg        *logger.Logger
}

// NewService constructs the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.DBClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("payment session repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:          params.DBClient,
		products:    params.Products,
		orders:      params.Orders,
		sessions:    params.Sessions,
		paystack:    params.Paystack,
		nowpayments: params.NOWPayments,
		logg:        params.Logger,
	}, nil
}

// Execute revalidates prices, snapshots the order, and hands off to the
// payment provider. A provider failure leaves the order pending with its
// session marked failed; nothing is rolled back.
func (s *service) Execute(ctx context.Context, input Input) (*Result, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	items, total, currency, err := s.buildSnapshot(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       orders.GenerateOrderNumber(),
		CustomerSubject:   input.Subject,
		Email:             input.Email,
		Items:             items,
		TotalAmount:       total,
		Currency:          currency,
		ShippingAddress:   input.ShippingAddress,
		Status:            orders.StatusPending,
		PaymentStatus:     enums.PaymentStatusPending,
		FulfillmentStatus: enums.FulfillmentStatusPending,
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.orders.WithTx(tx).Create(ctx, order)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create order")
	}

	logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(logCtx, "order created, initializing payment")

	switch input.Provider {
	case enums.ProviderPaystack:
		return s.initPaystack(logCtx, order, input)
	case enums.ProviderNOWPayments:
		return s.initNOWPayments(logCtx, order, input)
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment provider %q", input.Provider)
	}
}

func (s *service) validate(input Input) error {
	if input.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid quantity for product %s", item.ProductID)
		}
	}
	if field := input.ShippingAddress.Validate(); field != "" {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "shipping address missing %s", field)
	}
	if !input.Provider.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment provider %q", input.Provider)
	}
	return nil
}

// buildSnapshot re-fetches every product and prices the lines from the
// catalog. Client-supplied prices never enter this path.
func (s *service) buildSnapshot(ctx context.Context, inputs []ItemInput) ([]models.OrderItem, decimal.Decimal, enums.Currency, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, item := range inputs {
		ids = append(ids, item.ProductID)
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load checkout products")
	}

	items := make([]models.OrderItem, 0, len(inputs))
	total := decimal.Zero
	currency := enums.CurrencyNGN
	for _, item := range inputs {
		product, ok := catalog[item.ProductID]
		if !ok {
			return nil, decimal.Zero, "", pkgerrors.Newf(pkgerrors.CodeValidation, "product not found: %s", item.ProductID)
		}

		unit := product.FinalPrice
		sku := ""
		if item.VariantID != nil {
			for _, variant := range product.Variants {
				if variant.SKU == *item.VariantID {
					unit = variant.Price
					sku = variant.SKU
					break
				}
			}
		}

		line := models.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			VariantID: item.VariantID,
			SKU:       sku,
			Quantity:  item.Quantity,
			UnitPrice: unit,
		}
		items = append(items, line)
		total = total.Add(line.LineTotal())
		currency = product.Currency
	}
	return items, total, currency, nil
}

func (s *service) initPaystack(ctx context.Context, order *models.Order, input Input) (*Result, error) {
	if s.paystack == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack is not configured")
	}

	init, err := s.paystack.Initialize(ctx, paystack.InitializeInput{
		Email:       input.Email,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Reference:   order.OrderNumber,
		OrderNumber: order.OrderNumber,
		CallbackURL: input.CallbackURL,
	})
	if err != nil {
		s.recordFailedSession(ctx, order, enums.ProviderPaystack, order.OrderNumber)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initializing paystack transaction")
	}

	session := &models.PaymentSession{
		OrderID:           order.ID,
		Provider:          enums.ProviderPaystack,
		ProviderPaymentID: init.Reference,
		Status:            payments.SessionInitialized,
		Amount:            order.TotalAmount,
		PayCurrency:       order.Currency,
		RedirectURL:       init.AuthorizationURL,
	}
	if _, err := s.sessions.Create(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create payment session")
	}

	return &Result{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Provider:    enums.ProviderPaystack,
		Reference:   init.Reference,
		PaymentURL:  init.AuthorizationURL,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
	}, nil
}

func (s *service) initNOWPayments(ctx context.Context, order *models.Order, input Input) (*Result, error) {
	if s.nowpayments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "nowpayments is not configured")
	}

	payment, err := s.nowpayments.CreatePayment(ctx, nowpayments.CreatePaymentInput{
		Amount:        order.TotalAmount,
		PriceCurrency: string(order.Currency),
		PayCurrency:   input.PayCurrency,
		OrderNumber:   order.OrderNumber,
		Description:   fmt.Sprintf("Order %s", order.OrderNumber),
		IPNCallback:   input.CallbackURL,
	})
	if err != nil {
		s.recordFailedSession(ctx, order, enums.ProviderNOWPayments, order.OrderNumber)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating nowpayments payment")
	}

	payCurrency := enums.Currency(payment.PayCurrency)
	if !payCurrency.IsValid() {
		payCurrency = order.Currency
	}
	session := &models.PaymentSession{
		OrderID:           order.ID,
		Provider:          enums.ProviderNOWPayments,
		ProviderPaymentID: payment.PaymentID.String(),
		Status:            payments.SessionInitialized,
		Amount:            order.TotalAmount,
		PayCurrency:       payCurrency,
		RedirectURL:       payment.InvoiceURL,
	}
	if _, err := s.sessions.Create(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create payment session")
	}

	url := payment.InvoiceURL
	if url == "" {
		url = payment.PayAddress
	}
	return &Result{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Provider:    enums.ProviderNOWPayments,
		Reference:   payment.PaymentID.String(),
		PaymentURL:  url,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
	}, nil
}

// recordFailedSession persists the failed attempt; the pending order stays
// behind for the TTL sweep.
func (s *service) recordFailedSession(ctx context.Context, order *models.Order, provider enums.PaymentProvider, reference string) {
	_, err := s.sessions.Create(ctx, &models.PaymentSession{
		OrderID:           order.ID,
		Provider:          provider,
		ProviderPaymentID: reference,
		Status:            payments.SessionFailed,
		Amount:            order.TotalAmount,
		PayCurrency:       order.Currency,
	})
	if err != nil {
		s.logg.Error(ctx, "recording failed payment session", err)
	}
}
