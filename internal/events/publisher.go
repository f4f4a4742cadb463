// Package events publishes workflow outcome events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/edgard/vipdesk/internal/config"
)

type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

type rmqClient struct {
	conn     *amqp091.Connection
	exchange string
	log      *slog.Logger
}

// New returns a RabbitMQ publisher when events are enabled and a no-op one otherwise.
func New(cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	return Dial(cfg.URL, cfg.Exchange, logger)
}

// Dial connects to the broker and declares a durable topic exchange.
func Dial(url, exchange string, logger *slog.Logger) (Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log := logger.With("component", "events")
	log.Info("Event publisher connected", "exchange", exchange)
	return &rmqClient{conn: conn, exchange: exchange, log: log}, nil
}

func (r *rmqClient) Publish(ctx context.Context, key string, msg Envelope) error {
	pub, err := publishing(msg)
	if err != nil {
		return err
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.PublishWithContext(ctx, r.exchange, key, false, false, pub); err != nil {
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}
	r.log.DebugContext(ctx, "Event published", "key", key, "exchange", r.exchange, "message_id", pub.MessageId)
	return nil
}

func (r *rmqClient) Close() error {
	return r.conn.Close()
}

// publishing fills AMQP properties from the envelope meta.
func publishing(msg Envelope) (amqp091.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to encode event: %w", err)
	}

	msgID := msg.Meta.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}
	cid := msgID
	if msg.Meta.CorrelationID != nil {
		cid = *msg.Meta.CorrelationID
	}
	ts := msg.Meta.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msgID,
		CorrelationId: cid,
		Type:          msg.Meta.Type,
		Timestamp:     ts,
		Body:          body,
	}, nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, string, Envelope) error { return nil }

func (Nop) Close() error { return nil }
