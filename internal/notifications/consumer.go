package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/velora-shop/storefront-backend/pkg/enums"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"github.com/velora-shop/storefront-backend/pkg/outbox"
	"github.com/velora-shop/storefront-backend/pkg/outbox/idempotency"
	"github.com/velora-shop/storefront-backend/pkg/outbox/payloads"
)

const notificationConsumer = "notification-worker"

// Consumer reads published domain events and hands them to the dispatcher.
// Events it cannot ever handle are acked; transient failures are nacked for
// redelivery with the idempotency marker cleared.
type Consumer struct {
	dispatcher   *Dispatcher
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the notification event consumer.
func NewConsumer(dispatcher *Dispatcher, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		dispatcher:   dispatcher,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
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
		"event_type": string(eventType),
	})

	handler, ok := c.handlerFor(eventType)
	if !ok {
		c.logg.Info(logCtx, "skipping unhandled event")
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := handler(ctx, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handlerFor(eventType enums.OutboxEventType) (func(context.Context, json.RawMessage) error, bool) {
	switch eventType {
	case enums.EventOrderPlaced:
		return c.handleOrderPlaced, true
	case enums.EventUserRegistered, enums.EventVerificationResent:
		return c.handleVerificationRequested, true
	case enums.EventContactReceived:
		return c.handleContactReceived, true
	default:
		return nil, false
	}
}

func (c *Consumer) handleOrderPlaced(ctx context.Context, data json.RawMessage) error {
	var payload payloads.OrderPlacedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse order payload: %w", err)
	}
	return c.dispatcher.NotifyOrderPlaced(ctx, payload)
}

func (c *Consumer) handleVerificationRequested(ctx context.Context, data json.RawMessage) error {
	var payload payloads.UserRegisteredEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse user payload: %w", err)
	}
	return c.dispatcher.NotifyVerificationRequested(ctx, payload)
}

func (c *Consumer) handleContactReceived(ctx context.Context, data json.RawMessage) error {
	var payload payloads.ContactReceivedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse contact payload: %w", err)
	}
	return c.dispatcher.NotifyContactReceived(ctx, payload)
}
