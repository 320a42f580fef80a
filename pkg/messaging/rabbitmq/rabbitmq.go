package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/cirs/cirs-api/pkg/circuitbreaker"
	"github.com/cirs/cirs-api/pkg/messaging"
)

type Config struct {
	URL      string
	Exchange string
}

// Broker publishes to a durable topic exchange. The channel name passed to
// Publish and Subscribe is used as the routing key. A closed connection or
// publishing channel is reopened on the next use.
type Broker struct {
	url      string
	exchange string
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       publisher
	open     func() (publisher, error)
	cb       *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

// publisher is the part of *amqp091.Channel that Publish needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	IsClosed() bool
	Close() error
}

func NewBroker(config Config, logger zerolog.Logger) (messaging.Broker, error) {
	if config.Exchange == "" {
		return nil, fmt.Errorf("rabbitmq exchange is required")
	}

	b := &Broker{
		url:      config.URL,
		exchange: config.Exchange,
		logger:   logger.With().Str("component", "rabbitmq-broker").Logger(),
		cb: circuitbreaker.New(circuitbreaker.Settings{
			Name:     "rabbitmq-broker",
			Interval: 10 * time.Second,
			Timeout:  5 * time.Second,
		}, logger),
	}
	b.open = b.openChannel

	b.mu.Lock()
	defer b.mu.Unlock()
	ch, err := b.open()
	if err != nil {
		if b.conn != nil {
			b.conn.Close()
		}
		return nil, err
	}
	b.ch = ch
	return b, nil
}

// connection returns the live connection, dialing again if it was closed.
// Callers hold b.mu.
func (b *Broker) connection() (*amqp091.Connection, error) {
	if b.conn != nil && !b.conn.IsClosed() {
		return b.conn, nil
	}
	if b.conn != nil {
		b.logger.Warn().Msg("RabbitMQ connection closed, reconnecting")
	}
	conn, err := amqp091.Dial(b.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	b.conn = conn
	return conn, nil
}

// openChannel opens a publishing channel and declares the exchange on it.
// Callers hold b.mu.
func (b *Broker) openChannel() (publisher, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(b.exchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", b.exchange, err)
	}
	return ch, nil
}

// channel returns the publishing channel, reopening it when the server or a
// channel-level error closed it. Callers hold b.mu.
func (b *Broker) channel() (publisher, error) {
	if b.ch != nil && !b.ch.IsClosed() {
		return b.ch, nil
	}
	if b.ch != nil {
		b.logger.Warn().Msg("RabbitMQ channel closed, reopening")
	}
	ch, err := b.open()
	if err != nil {
		return nil, err
	}
	b.ch = ch
	return ch, nil
}

func (b *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	headers := amqp091.Table{"event_type": channel}
	if msg, ok := message.(messaging.Message); ok {
		headers["event_id"] = msg.ID
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Headers:      headers,
		Timestamp:    time.Now().UTC(),
	}

	err = circuitbreaker.Execute(b.cb, func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		ch, err := b.channel()
		if err != nil {
			return err
		}
		return ch.PublishWithContext(ctx, b.exchange, channel, false, false, publishing)
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe binds an exclusive, auto-deleted queue to the routing key.
func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	conn, err := b.connection()
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, channel, b.exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	out := make(chan []byte, 100)
	go func() {
		defer func() {
			ch.Close()
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				select {
				case out <- d.Body:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ch != nil && !b.ch.IsClosed() {
		if err := b.ch.Close(); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to close channel")
		}
	}
	if b.conn == nil || b.conn.IsClosed() {
		return nil
	}
	return b.conn.Close()
}
