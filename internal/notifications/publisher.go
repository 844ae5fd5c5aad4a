package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers notifications outside the process.
// Inbox delivery to the client happens in the network regardless of the publisher.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// LogPublisher only logs. It is used when no broker is configured or reachable.
type LogPublisher struct {
	Log *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, n Notification) error {
	l := p.Log
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "notification", "kind", n.Kind, "terminal", n.TerminalKey, "client", n.ClientKey)
	return nil
}

func (LogPublisher) Close() error { return nil }

// DefaultExchange is the topic exchange notifications are published to.
const DefaultExchange = "network.notifications"

// AMQPPublisher publishes JSON notifications to a durable topic exchange.
// Routing key: notification.<kind>.<client key>.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(amqpURL, exchange string) (*AMQPPublisher, error) {
	clean, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.DialConfig(clean, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(n), false, false, msg)
	if err == nil {
		return nil
	}

	// One retry on a fresh channel; the old one is closed by the broker after a channel error.
	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	p.ch = ch
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(n), false, false, msg)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func RoutingKey(n Notification) string {
	return "notification." + strings.ToLower(string(n.Kind)) + "." + n.ClientKey
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("amqp url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("amqp url must use amqp:// or amqps://")
	}
	return clean, nil
}
