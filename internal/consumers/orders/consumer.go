package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox/payloads"
)

const consumerName = "order-fulfillment"

type fulfiller interface {
	FulfillOrder(ctx context.Context, orderID uuid.UUID) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer drives supplier fulfillment from order.paid events.
type Consumer struct {
	fulfillment  fulfiller
	manager      idempotencyChecker
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer bound to the orders subscription.
func NewConsumer(fulfillment fulfiller, manager idempotencyChecker, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if fulfillment == nil {
		return nil, errors.New("fulfillment service is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if subscription == nil {
		return nil, errors.New("orders subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		fulfillment:  fulfillment,
		manager:      manager,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventOrderPaid {
		c.logg.Info(logCtx, "event not handled by fulfillment consumer")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	var payload payloads.OrderPaidEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to decode order.paid payload", err)
		return processResult{ack: true}
	}
	if payload.OrderID == uuid.Nil {
		c.logg.Error(logCtx, "payload missing order id", fmt.Errorf("empty order_id"))
		return processResult{ack: true}
	}
	logCtx = c.logg.WithOrderNumber(logCtx, payload.OrderNumber)

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.fulfillment.FulfillOrder(ctx, payload.OrderID); err != nil {
		c.logg.Error(logCtx, "fulfillment failed", err)
		if delErr := c.manager.Delete(ctx, consumerName, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to clear idempotency marker", delErr)
		}
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "order fulfillment triggered")
	return processResult{ack: true}
}
