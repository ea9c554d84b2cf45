package event

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/storefront/backend/internal/infrastructure/config"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events to a Kafka topic, keyed by aggregate ID
type KafkaSink struct {
	writer kafkaWriter
	topic  string
}

// NewKafkaSink creates a sink writing to cfg.Topic on cfg.Brokers.
// The hash balancer keeps every event of one order on the same partition.
func NewKafkaSink(cfg config.KafkaConfig) *KafkaSink {
	return newKafkaSink(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}, cfg.Topic)
}

func newKafkaSink(writer kafkaWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: writer, topic: topic}
}

func (s *KafkaSink) Name() string {
	return "kafka:" + s.topic
}

// Send writes one message and waits for the leader's acknowledgement
func (s *KafkaSink) Send(ctx context.Context, msg Message) error {
	err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Time:  msg.OccurredAt.UTC(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.EventID)},
			{Key: "event_type", Value: []byte(msg.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", msg.EventType, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

var _ Sink = (*KafkaSink)(nil)
