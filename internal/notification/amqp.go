package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher is the subset of *amqp091.Channel the notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPNotifier publishes notifications to a RabbitMQ exchange.
type AMQPNotifier struct {
	publisher  Publisher
	exchange   string
	routingKey string
	closer     func() error
}

// DialAMQP connects to url and declares a durable topic exchange.
func DialAMQP(url, exchange, routingKey string) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	n := NewAMQPNotifier(channel, exchange, routingKey)
	n.closer = func() error {
		channel.Close()
		return conn.Close()
	}
	return n, nil
}

// NewAMQPNotifier wraps an open publisher.
func NewAMQPNotifier(p Publisher, exchange, routingKey string) *AMQPNotifier {
	return &AMQPNotifier{publisher: p, exchange: exchange, routingKey: routingKey}
}

// Send publishes message with routing key "<routingKey>.<kind>".
func (n *AMQPNotifier) Send(ctx context.Context, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = n.publisher.PublishWithContext(ctx, n.exchange, n.routingKey+"."+message.Kind, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close releases the connection opened by DialAMQP.
func (n *AMQPNotifier) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}
