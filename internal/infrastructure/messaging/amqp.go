// Package messaging publishes session events to a RabbitMQ topic exchange.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// DefaultExchange is the topic exchange session events are routed through.
const DefaultExchange = "eatwhat.events"

const maxReconnectAttempts = 10

var errClosed = errors.New("amqp connection closed")

// Connection owns one AMQP connection and channel and redials with backoff
// when the broker drops it.
type Connection struct {
	url      string
	exchange string
	log      zerolog.Logger

	mu         sync.RWMutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	closed     bool
	done       chan struct{}
	reconnects int
}

// NewConnection dials url and declares exchange. An empty exchange falls back
// to DefaultExchange.
func NewConnection(rawURL, exchange string, log zerolog.Logger) (*Connection, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	c := &Connection{url: rawURL, exchange: exchange, log: log, done: make(chan struct{})}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// connect dials under the lock, so a concurrent Close either runs first and
// is seen here, or waits and then closes the fresh connection.
func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		c.exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange %q: %w", c.exchange, err)
	}

	c.conn, c.channel = conn, ch
	go c.handleReconnect(conn)

	c.log.Info().Str("broker", redactURL(c.url)).Str("exchange", c.exchange).Msg("connected to RabbitMQ")
	return nil
}

func (c *Connection) handleReconnect(conn *amqp.Connection) {
	amqpErr, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || amqpErr == nil {
		return
	}
	if c.isClosed() {
		return
	}

	c.log.Warn().Err(amqpErr).Msg("RabbitMQ connection closed, reconnecting")
	c.reconnect()
}

// reconnect redials with exponential backoff until it succeeds, the attempts
// run out or Close is called.
func (c *Connection) reconnect() {
	for i := 0; i < maxReconnectAttempts; i++ {
		backoff := time.Duration(1<<i) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		timer := time.NewTimer(backoff)
		select {
		case <-c.done:
			timer.Stop()
			return
		case <-timer.C:
		}

		c.mu.Lock()
		c.reconnects++
		total := c.reconnects
		c.mu.Unlock()

		err := c.connect()
		if errors.Is(err, errClosed) {
			return
		}
		if err != nil {
			c.log.Error().Err(err).Int("attempt", i+1).Int("reconnects", total).Msg("reconnection failed")
			continue
		}
		return
	}
	c.log.Error().Int("attempts", maxReconnectAttempts).Msg("giving up reconnecting to RabbitMQ")
}

func (c *Connection) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// IsConnected reports whether the underlying connection is open.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Ping satisfies the readiness probe contract.
func (c *Connection) Ping(context.Context) error {
	if !c.IsConnected() {
		return errClosed
	}
	return nil
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		if c.done != nil {
			close(c.done)
		}
	}
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishJSON marshals data and publishes it to the exchange under routingKey.
func (c *Connection) PublishJSON(ctx context.Context, routingKey string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.RLock()
	ch, closed := c.channel, c.closed
	c.mu.RUnlock()
	if closed || ch == nil {
		return errClosed
	}

	return ch.PublishWithContext(ctx,
		c.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Publisher routes each session event by its type, e.g. "session.locked".
type Publisher struct {
	conn *Connection
}

var _ ports.EventPublisher = (*Publisher)(nil)

func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) Publish(ctx context.Context, event domain.SessionEvent) error {
	if err := p.conn.PublishJSON(ctx, string(event.Type), event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// redactURL strips credentials before the broker address is logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "amqp://<invalid>"
	}
	u.User = nil
	return u.String()
}
