package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/internal/orders"
	"github.com/Stan-lee13/auracart-ng/internal/payments"
	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox/payloads"
)

const (
	defaultPendingOrderTTL = 24 * time.Hour
	sweepBatchSize         = 200
)

type sweepEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PendingSweepJobParams configure the abandoned checkout sweep.
type PendingSweepJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Orders   orders.Repository
	Sessions *payments.Repository
	Outbox   sweepEmitter
	TTL      time.Duration
}

// NewPendingSweepJob builds the job that expires orders whose payment never
// arrived. Expired orders move to payment_failed so they stop blocking
// webhook replays and order-number lookups stay truthful.
func NewPendingSweepJob(params PendingSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
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
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	return &pendingSweepJob{
		logg:     params.Logger,
		db:       params.DB,
		orders:   params.Orders,
		sessions: params.Sessions,
		outbox:   params.Outbox,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

type pendingSweepJob struct {
	logg     *logger.Logger
	db       txRunner
	orders   orders.Repository
	sessions *payments.Repository
	outbox   sweepEmitter
	ttl      time.Duration
	now      func() time.Time
}

func (j *pendingSweepJob) Name() string { return "pending-order-sweep" }

func (j *pendingSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.ttl)
	stale, err := j.orders.ListPendingPaymentBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("list stale pending orders: %w", err)
	}

	expired := 0
	var sweepErr error
	for i := range stale {
		if err := j.expire(ctx, &stale[i]); err != nil {
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("%s: %w", stale[i].OrderNumber, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": len(stale),
		"expired": expired,
	})
	j.logg.Info(logCtx, "pending order sweep complete")
	return sweepErr
}

func (j *pendingSweepJob) expire(ctx context.Context, order *models.Order) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := j.orders.WithTx(tx).MarkPaymentFailed(ctx, order.ID)
		if err != nil {
			return err
		}
		if !won {
			// paid or already expired between list and update
			return nil
		}
		if session, err := j.sessions.WithTx(tx).FindLatestByOrder(ctx, order.ID); err != nil {
			return err
		} else if session != nil && session.Status == payments.SessionInitialized {
			if err := j.sessions.WithTx(tx).MarkFailed(ctx, session.ID); err != nil {
				return err
			}
		}
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaymentFailedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Reason:      "payment window expired",
				FailedAt:    j.now(),
			},
		})
	})
}
