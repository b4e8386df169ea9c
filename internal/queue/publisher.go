package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"transflow/internal/domain"
	"transflow/internal/metrics"
)

// Publisher publishes settlement events to the settlement queue.
type Publisher struct {
	mq *RabbitMQ
}

// NewPublisher creates a new Publisher.
func NewPublisher(mq *RabbitMQ) *Publisher {
	return &Publisher{mq: mq}
}

// PublishSettlement publishes a settlement event as a persistent JSON
// message on the settlement queue. The default exchange routes by queue
// name, so every event lands on the single named queue.
func (p *Publisher) PublishSettlement(ctx context.Context, event domain.RideSettlementEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode settlement event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.mq.ch.PublishWithContext(
		publishCtx,
		"",         // default exchange
		p.mq.queue, // routing key = queue name
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish settlement event: %w", err)
	}

	metrics.EventsPublished.Inc()
	return nil
}
