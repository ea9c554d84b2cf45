package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// ErrPublishNacked is returned when the broker refuses a confirmed publish
var ErrPublishNacked = errors.New("rabbitmq: publish not acknowledged")

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// RabbitSink publishes events to a durable topic exchange with publisher confirms.
// Routing keys are derived from the event type, e.g. order.placed.
type RabbitSink struct {
	conn     io.Closer
	ch       amqpChannel
	exchange string
	mu       sync.Mutex
}

// DialRabbitSink connects to cfg.URL and declares the exchange
func DialRabbitSink(cfg config.RabbitMQConfig) (*RabbitSink, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	sink, err := newRabbitSink(ch, cfg.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	sink.conn = conn
	return sink, nil
}

func newRabbitSink(ch amqpChannel, exchange string) (*RabbitSink, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	return &RabbitSink{ch: ch, exchange: exchange}, nil
}

func (s *RabbitSink) Name() string {
	return "rabbitmq:" + s.exchange
}

// Send publishes a persistent message and waits for the broker's confirm
func (s *RabbitSink) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	confirm, err := s.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		s.exchange,
		routingKey(msg.EventType),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.EventID,
			Type:         msg.EventType,
			Timestamp:    msg.OccurredAt,
			Headers:      amqp.Table{"aggregate_id": msg.Key},
			Body:         msg.Payload,
		},
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", msg.EventType, err)
	}

	// nil when the channel is not in confirm mode
	if confirm == nil {
		return nil
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq confirm %s: %w", msg.EventType, err)
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// Close closes the channel and, when the sink dialed it, the connection
func (s *RabbitSink) Close() error {
	err := s.ch.Close()
	if s.conn != nil {
		err = errors.Join(err, s.conn.Close())
	}
	return err
}

var _ Sink = (*RabbitSink)(nil)
