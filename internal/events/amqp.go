package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultExchange is the fanout exchange anchor events are published to.
const DefaultExchange = "lattice.events"

// AMQPPublisher publishes anchor events to a durable fanout exchange.
// It implements Publisher.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher connects to the broker at url and declares the exchange.
// An empty exchange name falls back to DefaultExchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	logger.Info("amqp publisher connected", zap.String("exchange", exchange))
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, logger: logger}, nil
}

// PublishRootUpdated implements Publisher.
func (p *AMQPPublisher) PublishRootUpdated(ctx context.Context, ev RootUpdated) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// The routing key is ignored by the fanout exchange but kept meaningful
	// for consumers that bind through a topic exchange instead.
	if err := p.channel.PublishWithContext(ctx,
		p.exchange,
		TypeRootUpdated,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   ev.EventID,
			Timestamp:   time.Now().UTC(),
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish %s: %w", TypeRootUpdated, err)
	}

	p.logger.Debug("event published",
		zap.String("type", TypeRootUpdated),
		zap.String("event_id", ev.EventID),
	)
	return nil
}

// Healthy reports whether the broker connection is still open.
func (p *AMQPPublisher) Healthy() error {
	if p.conn.IsClosed() {
		return fmt.Errorf("amqp connection closed")
	}
	return nil
}

// Close implements Publisher.
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return fmt.Errorf("close amqp channel: %w", err)
	}
	return p.conn.Close()
}
