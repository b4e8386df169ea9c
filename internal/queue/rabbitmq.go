package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"transflow/internal/config"
)

// RabbitMQ wraps a RabbitMQ connection with the settlement queue declared.
// It is the event channel between intake and the settlement worker:
// durable queue, persistent messages, manual acknowledgment.
type RabbitMQ struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu     sync.Mutex
	closed bool
}

// Connect dials RabbitMQ with retry and declares the settlement queue.
// Brokers are often the last dependency to come up, so connection failures
// are retried with backoff before giving up.
func Connect(ctx context.Context, cfg config.RabbitMQConfig, prefetch int) (*RabbitMQ, error) {
	const maxRetries = 10
	retryDelay := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		mq, err := connect(cfg, prefetch)
		if err == nil {
			return mq, nil
		}
		lastErr = err

		log.Printf("[QUEUE] connection attempt %d/%d failed: %v", attempt, maxRetries, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}

		retryDelay = time.Duration(float64(retryDelay) * 1.5)
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}

	return nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", maxRetries, lastErr)
}

func connect(cfg config.RabbitMQConfig, prefetch int) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}

	// Durable so published events survive a broker restart.
	if _, err := ch.QueueDeclare(cfg.SettlementQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.SettlementQueue, err)
	}

	return &RabbitMQ{conn: conn, ch: ch, queue: cfg.SettlementQueue}, nil
}

// Close closes the channel and connection. Safe to call more than once.
func (mq *RabbitMQ) Close() {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return
	}
	mq.closed = true

	if mq.ch != nil {
		_ = mq.ch.Close()
	}
	if mq.conn != nil {
		_ = mq.conn.Close()
	}
}
