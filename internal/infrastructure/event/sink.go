package event

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/storefront/backend/internal/domain/shared"
)

// Message is the broker-neutral form of an outgoing event
type Message struct {
	// Key is the aggregate ID; brokers use it to keep one order's events in sequence
	Key        string
	EventID    string
	EventType  string
	OccurredAt time.Time
	Payload    []byte
}

// Sink delivers serialized events to an external broker
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
	Close() error
}

// SinkHandler forwards every event on the bus to one sink
type SinkHandler struct {
	sink       Sink
	serializer *EventSerializer
}

// NewSinkHandler creates a bus handler for sink
func NewSinkHandler(sink Sink, serializer *EventSerializer) *SinkHandler {
	return &SinkHandler{sink: sink, serializer: serializer}
}

// EventTypes subscribes the handler to all events
func (h *SinkHandler) EventTypes() []string {
	return nil
}

// Handle serializes the event and hands it to the sink
func (h *SinkHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	return h.sink.Send(ctx, Message{
		Key:        event.AggregateID().String(),
		EventID:    event.EventID().String(),
		EventType:  event.EventType(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	})
}

// Name identifies the sink, and scopes its idempotency keys
func (h *SinkHandler) Name() string {
	return h.sink.Name()
}

var _ shared.EventHandler = (*SinkHandler)(nil)

// routingKey turns an event type into a dotted topic key: OrderStatusChanged becomes order.status_changed
func routingKey(eventType string) string {
	var b strings.Builder
	for i, r := range eventType {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.Replace(b.String(), "_", ".", 1)
}
