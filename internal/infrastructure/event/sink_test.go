package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKafkaWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeKafkaWriter) Close() error {
	w.closed = true
	return nil
}

type publishCall struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeAMQPChannel struct {
	declared   string
	kind       string
	confirmOn  bool
	publishErr error
	published  []publishCall
	closed     bool
}

func (c *fakeAMQPChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.declared, c.kind = name, kind
	return nil
}

func (c *fakeAMQPChannel) Confirm(noWait bool) error {
	c.confirmOn = true
	return nil
}

func (c *fakeAMQPChannel) PublishWithDeferredConfirmWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error) {
	if c.publishErr != nil {
		return nil, c.publishErr
	}
	c.published = append(c.published, publishCall{exchange: exchange, key: key, msg: msg})
	return nil, nil
}

func (c *fakeAMQPChannel) Close() error {
	c.closed = true
	return nil
}

type recordingSink struct {
	msgs []Message
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) Close() error { return nil }
func (s *recordingSink) Send(_ context.Context, msg Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "order.placed", routingKey("OrderPlaced"))
	assert.Equal(t, "order.status_changed", routingKey("OrderStatusChanged"))
	assert.Equal(t, "ping", routingKey("Ping"))
}

func TestSinkHandler_Handle(t *testing.T) {
	sink := &recordingSink{}
	h := NewSinkHandler(sink, NewEventSerializer())
	event := newTestEvent("TestEvent")

	require.NoError(t, h.Handle(context.Background(), event))

	assert.Nil(t, h.EventTypes())
	assert.Equal(t, "recording", h.Name())
	require.Len(t, sink.msgs, 1)
	msg := sink.msgs[0]
	assert.Equal(t, event.AggregateID().String(), msg.Key)
	assert.Equal(t, event.EventID().String(), msg.EventID)
	assert.Equal(t, "TestEvent", msg.EventType)
	assert.Contains(t, string(msg.Payload), `"data":"test data"`)
}

func TestKafkaSink_Send(t *testing.T) {
	w := &fakeKafkaWriter{}
	sink := newKafkaSink(w, "orders")
	event := newTestEvent("OrderPlaced")

	err := NewSinkHandler(sink, NewEventSerializer()).Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, "kafka:orders", sink.Name())
	require.Len(t, w.msgs, 1)
	got := w.msgs[0]
	assert.Equal(t, event.AggregateID().String(), string(got.Key))
	require.Len(t, got.Headers, 2)
	assert.Equal(t, "event_id", got.Headers[0].Key)
	assert.Equal(t, event.EventID().String(), string(got.Headers[0].Value))
	assert.Equal(t, "OrderPlaced", string(got.Headers[1].Value))

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSink_SendError(t *testing.T) {
	w := &fakeKafkaWriter{err: errors.New("leader not available")}
	sink := newKafkaSink(w, "orders")

	err := sink.Send(context.Background(), Message{EventType: "OrderPlaced"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestRabbitSink_DeclaresExchangeInConfirmMode(t *testing.T) {
	ch := &fakeAMQPChannel{}

	sink, err := newRabbitSink(ch, "storefront.events")

	require.NoError(t, err)
	assert.Equal(t, "storefront.events", ch.declared)
	assert.Equal(t, "topic", ch.kind)
	assert.True(t, ch.confirmOn)
	assert.Equal(t, "rabbitmq:storefront.events", sink.Name())
}

func TestRabbitSink_Send(t *testing.T) {
	ch := &fakeAMQPChannel{}
	sink, err := newRabbitSink(ch, "storefront.events")
	require.NoError(t, err)

	msg := Message{Key: "agg-1", EventID: "evt-1", EventType: order.EventTypeOrderStatusChanged, Payload: []byte(`{}`)}
	require.NoError(t, sink.Send(context.Background(), msg))

	require.Len(t, ch.published, 1)
	call := ch.published[0]
	assert.Equal(t, "storefront.events", call.exchange)
	assert.Equal(t, "order.status_changed", call.key)
	assert.Equal(t, amqp.Persistent, call.msg.DeliveryMode)
	assert.Equal(t, "evt-1", call.msg.MessageId)
	assert.Equal(t, "agg-1", call.msg.Headers["aggregate_id"])

	require.NoError(t, sink.Close())
	assert.True(t, ch.closed)
}

func TestRabbitSink_SendError(t *testing.T) {
	ch := &fakeAMQPChannel{publishErr: amqp.ErrClosed}
	sink, err := newRabbitSink(ch, "storefront.events")
	require.NoError(t, err)

	err = sink.Send(context.Background(), Message{EventType: "OrderPlaced"})

	require.ErrorIs(t, err, amqp.ErrClosed)
}

type statusCall struct{ from, to string }

type fakeStatusRecorder struct{ calls []statusCall }

func (r *fakeStatusRecorder) RecordStatusChange(_ context.Context, from, to string) {
	r.calls = append(r.calls, statusCall{from, to})
}

func TestOrderMetricsHandler(t *testing.T) {
	rec := &fakeStatusRecorder{}
	h := NewOrderMetricsHandler(rec)

	changed := &order.OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderStatusChanged, order.AggregateTypeOrder, newTestEvent("x").AggregateID()),
		From:            order.OrderStatusPending,
		To:              order.OrderStatusConfirmed,
	}

	require.NoError(t, h.Handle(context.Background(), changed))
	require.NoError(t, h.Handle(context.Background(), newTestEvent("Other")))

	assert.Equal(t, []string{order.EventTypeOrderStatusChanged}, h.EventTypes())
	assert.Equal(t, []statusCall{{"pending", "confirmed"}}, rec.calls)
}
