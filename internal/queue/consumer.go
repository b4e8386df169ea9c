package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"transflow/internal/domain"
	"transflow/internal/metrics"
)

// SettlementHandler processes one decoded settlement event. A nil return
// acknowledges the delivery; a non-nil return leaves retry to the channel
// (the delivery is requeued, not retried in-process).
type SettlementHandler func(ctx context.Context, event domain.RideSettlementEvent) error

// Consumer consumes settlement events from the settlement queue.
type Consumer struct {
	mq *RabbitMQ
}

// NewConsumer creates a new Consumer.
func NewConsumer(mq *RabbitMQ) *Consumer {
	return &Consumer{mq: mq}
}

// Consume reads deliveries until ctx is cancelled or the channel closes.
//
// Acknowledgment contract: a delivery is acked only after the handler
// finishes, so a worker crash mid-settlement causes redelivery. Malformed
// payloads are acked and dropped. Handler errors nack with requeue,
// delegating retry entirely to the broker.
func (c *Consumer) Consume(ctx context.Context, consumerTag string, handler SettlementHandler) error {
	deliveries, err := c.mq.ch.Consume(
		c.mq.queue,
		consumerTag,
		false, // auto-ack off: ack only after settlement completes
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	log.Printf("[QUEUE] consuming from queue %s", c.mq.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", c.mq.queue)
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

// handleDelivery settles the acknowledgment for one delivery: malformed
// payloads are acked and dropped, handler errors nack with requeue, and
// success acks.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler SettlementHandler) {
	event, err := DecodeSettlementEvent(delivery.Body)
	if err != nil {
		log.Printf("[QUEUE] dropping undecodable message: %v", err)
		metrics.MalformedEvents.Inc()
		_ = delivery.Ack(false)
		return
	}

	if err := handler(ctx, event); err != nil {
		log.Printf("[QUEUE] settlement of %s failed, requeueing: %v", event.BusinessID, err)
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
}

// DecodeSettlementEvent decodes and validates a settlement event payload.
// Decoding fails fast with ErrMalformedEvent instead of letting a bad
// field surface later inside the worker.
func DecodeSettlementEvent(body []byte) (domain.RideSettlementEvent, error) {
	var event domain.RideSettlementEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return domain.RideSettlementEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if event.BusinessID == "" {
		return domain.RideSettlementEvent{}, fmt.Errorf("%w: missing business_id", ErrMalformedEvent)
	}
	if event.Driver.Name == "" {
		return domain.RideSettlementEvent{}, fmt.Errorf("%w: missing driver name", ErrMalformedEvent)
	}
	if event.FareAmount < 0 {
		return domain.RideSettlementEvent{}, fmt.Errorf("%w: negative fare_amount", ErrMalformedEvent)
	}

	return event, nil
}
