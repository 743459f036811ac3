package reconcile

import (
	"context"
	"fmt"
	"time"

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
	"github.com/Stan-lee13/auracart-ng/pkg/metrics"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox/payloads"
)

// replayTTL bounds how long processed webhook markers are kept. Providers
// stop retrying well inside this window.
const replayTTL = 48 * time.Hour

const (
	providerPaystack    = "paystack"
	providerNOWPayments = "nowpayments"
)

// Outcome reports the result of a poll-once verification.
type Outcome struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Paid        bool   `json:"paid"`
}

// Service reconciles provider payment state onto orders.
type Service interface {
	VerifyPaystack(ctx context.Context, reference string) (*Outcome, error)
	HandlePaystackWebhook(ctx context.Context, body []byte, signature string) error
	HandleNOWPaymentsWebhook(ctx context.Context, body []byte, signature string) error
}

type paystackClient interface {
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
	ValidateSignature(body []byte, signature string) bool
	ParseWebhook(body []byte) (*paystack.WebhookEvent, error)
}

type nowpaymentsClient interface {
	ValidateIPNSignature(body []byte, signature string) bool
	ParseIPN(body []byte) (*nowpayments.IPNEvent, error)
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type replayGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	DBClient    *db.Client
	Orders      orders.Repository
	Sessions    *payments.Repository
	Outbox      outboxEmitter
	Paystack    paystackClient
	NOWPayments nowpaymentsClient
	Guard       replayGuard
	Metrics     *metrics.WebhookMetrics
	Logger      *logger.Logger
}

type service struct {
	db          *db.Client
	orders      orders.Repository
	sessions    *payments.Repository
	outbox      outboxEmitter
	paystack    paystackClient
	nowpayments nowpaymentsClient
	guard       replayGuard
	metrics     *metrics.WebhookMetrics
	logg        *logger.Logger
}

// NewService constructs the reconciliation service.
func NewService(params ServiceParams) (Service, error) {
	if params.DBClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("payment session repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("replay guard required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:          params.DBClient,
		orders:      params.Orders,
		sessions:    params.Sessions,
		outbox:      params.Outbox,
		paystack:    params.Paystack,
		nowpayments: params.NOWPayments,
		guard:       params.Guard,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// VerifyPaystack polls the provider once and settles the order if paid.
// Order identity comes from the provider-side metadata, never the caller.
func (s *service) VerifyPaystack(ctx context.Context, reference string) (*Outcome, error) {
	if s.paystack == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack is not configured")
	}
	result, err := s.paystack.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{OrderNumber: result.OrderNumber, Status: result.Status, Paid: result.Paid()}
	if !result.Paid() {
		return outcome, nil
	}

	if err := s.settle(ctx, settleInput{
		orderNumber: result.OrderNumber,
		provider:    enums.ProviderPaystack,
		reference:   result.Reference,
		amount:      result.Amount,
	}); err != nil {
		return nil, err
	}
	return outcome, nil
}

// HandlePaystackWebhook processes a charge notification. At-least-once
// delivery is tolerated through the Redis guard plus the payment_status
// pre-check inside settle.
func (s *service) HandlePaystackWebhook(ctx context.Context, body []byte, signature string) error {
	s.metrics.IncReceived(providerPaystack)
	if s.paystack == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "paystack is not configured")
	}
	if !s.paystack.ValidateSignature(body, signature) {
		s.metrics.IncRejected(providerPaystack, "signature")
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid paystack signature")
	}

	event, err := s.paystack.ParseWebhook(body)
	if err != nil {
		s.metrics.IncRejected(providerPaystack, "decode")
		return err
	}
	if event.Event != paystack.ChargeSuccessEvent {
		s.metrics.IncAccepted(providerPaystack, event.Event)
		return nil
	}

	duplicate, err := s.alreadyProcessed(ctx, providerPaystack, event.Data.Reference)
	if err != nil {
		return err
	}
	if duplicate {
		s.metrics.IncDuplicate(providerPaystack)
		return nil
	}

	if err := s.settle(ctx, settleInput{
		orderNumber: event.Data.OrderNumber,
		provider:    enums.ProviderPaystack,
		reference:   event.Data.Reference,
		amount:      event.Data.Amount,
	}); err != nil {
		s.clearProcessed(ctx, providerPaystack, event.Data.Reference)
		return err
	}
	s.metrics.IncAccepted(providerPaystack, event.Event)
	return nil
}

// HandleNOWPaymentsWebhook processes an IPN callback. Settled statuses mark
// the order paid; terminal failures mark it failed.
func (s *service) HandleNOWPaymentsWebhook(ctx context.Context, body []byte, signature string) error {
	s.metrics.IncReceived(providerNOWPayments)
	if s.nowpayments == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "nowpayments is not configured")
	}
	if !s.nowpayments.ValidateIPNSignature(body, signature) {
		s.metrics.IncRejected(providerNOWPayments, "signature")
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid nowpayments signature")
	}

	event, err := s.nowpayments.ParseIPN(body)
	if err != nil {
		s.metrics.IncRejected(providerNOWPayments, "decode")
		return err
	}

	eventID := fmt.Sprintf("%s:%s", event.PaymentID.String(), event.PaymentStatus)
	duplicate, err := s.alreadyProcessed(ctx, providerNOWPayments, eventID)
	if err != nil {
		return err
	}
	if duplicate {
		s.metrics.IncDuplicate(providerNOWPayments)
		return nil
	}

	switch {
	case nowpayments.Settled(event.PaymentStatus):
		err = s.settle(ctx, settleInput{
			orderNumber: event.OrderID,
			provider:    enums.ProviderNOWPayments,
			reference:   event.PaymentID.String(),
			amount:      event.ActuallyPaid,
		})
	case event.PaymentStatus == nowpayments.StatusFailed || event.PaymentStatus == nowpayments.StatusExpired:
		err = s.fail(ctx, event.OrderID, enums.ProviderNOWPayments, event.PaymentID.String(), event.PaymentStatus)
	default:
		// in-flight statuses (waiting, confirming, sending) are ignored
	}
	if err != nil {
		s.clearProcessed(ctx, providerNOWPayments, eventID)
		return err
	}
	s.metrics.IncAccepted(providerNOWPayments, event.PaymentStatus)
	return nil
}

func (s *service) alreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	key := s.guard.IdempotencyKey("evt:processed:webhook:"+provider, eventID)
	set, err := s.guard.SetNX(ctx, key, "1", replayTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: webhook replay guard")
	}
	return !set, nil
}

// clearProcessed releases the replay marker after a failed settlement so the
// provider retry is not mistaken for a duplicate.
func (s *service) clearProcessed(ctx context.Context, provider, eventID string) {
	key := s.guard.IdempotencyKey("evt:processed:webhook:"+provider, eventID)
	if err := s.guard.Del(ctx, key); err != nil {
		s.logg.Error(ctx, "failed to clear webhook replay marker", err)
	}
}

type settleInput struct {
	orderNumber string
	provider    enums.PaymentProvider
	reference   string
	amount      decimal.Decimal
}

// settle moves the order to paid in one transaction: the single-winner
// status update, the session stamp, and the order.paid outbox event.
// Replays see payment_status already paid and stop.
func (s *service) settle(ctx context.Context, input settleInput) error {
	order, err := s.orders.FindByOrderNumber(ctx, input.orderNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order == nil {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "order not found: %s", input.orderNumber)
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil
	}

	logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	paidAt := time.Now()

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.orders.WithTx(tx).MarkPaid(ctx, order.ID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		if err := s.stampSession(ctx, tx, order, input.provider, input.reference, input.amount); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Provider:    input.provider,
				Amount:      order.TotalAmount,
				Currency:    order.Currency,
				PaidAt:      paidAt,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: settle order")
	}

	s.logg.Info(logCtx, "order payment confirmed")
	return nil
}

// fail marks a terminal provider failure. Paid orders are never demoted.
func (s *service) fail(ctx context.Context, orderNumber string, provider enums.PaymentProvider, reference, reason string) error {
	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order == nil {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "order not found: %s", orderNumber)
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.orders.WithTx(tx).MarkPaymentFailed(ctx, order.ID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		if session, err := s.sessions.WithTx(tx).FindByProviderPaymentID(ctx, provider, reference); err != nil {
			return err
		} else if session != nil {
			if err := s.sessions.WithTx(tx).MarkFailed(ctx, session.ID); err != nil {
				return err
			}
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaymentFailedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Provider:    provider,
				Reason:      reason,
				FailedAt:    time.Now(),
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: fail order payment")
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "order payment failed")
	return nil
}

func (s *service) stampSession(ctx context.Context, tx *gorm.DB, order *models.Order, provider enums.PaymentProvider, reference string, amount decimal.Decimal) error {
	sessions := s.sessions.WithTx(tx)
	session, err := sessions.FindByProviderPaymentID(ctx, provider, reference)
	if err != nil {
		return err
	}
	if session == nil {
		session, err = sessions.FindLatestByOrder(ctx, order.ID)
		if err != nil || session == nil {
			return err
		}
	}
	paid := amount
	if paid.IsZero() {
		paid = order.TotalAmount
	}
	return sessions.MarkPaid(ctx, session.ID, paid)
}
