package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"group-order-bot/internal/logger"
	"group-order-bot/internal/session"
)

// OrderClosedEvent is the message published when a group order closes
// with at least one line item.
type OrderClosedEvent struct {
	GroupKey   string                `json:"group_key"`
	Restaurant string                `json:"restaurant"`
	Lines      []session.SummaryLine `json:"lines"`
	ClosedAt   time.Time             `json:"closed_at"`
}

// Publisher publishes order events to RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new event publisher.
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderClosed publishes a closed-order summary on the orders
// topic exchange.
func (p *Publisher) PublishOrderClosed(ctx context.Context, event OrderClosedEvent) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: 2, // persistent
		Timestamp:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		"orders_topic", // exchange
		"order.closed", // routing key
		false,          // mandatory
		false,          // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("event_publish_failed",
			"Failed to publish order-closed event", "", err, map[string]interface{}{
				"group_key":  event.GroupKey,
				"restaurant": event.Restaurant,
			})
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event_published",
		"Published order-closed event", "", map[string]interface{}{
			"group_key":    event.GroupKey,
			"restaurant":   event.Restaurant,
			"message_size": len(body),
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}
