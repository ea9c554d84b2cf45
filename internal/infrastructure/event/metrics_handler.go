package event

import (
	"context"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// StatusRecorder receives order lifecycle transitions
type StatusRecorder interface {
	RecordStatusChange(ctx context.Context, from, to string)
}

// OrderMetricsHandler counts status transitions as they are delivered from the outbox
type OrderMetricsHandler struct {
	recorder StatusRecorder
}

func NewOrderMetricsHandler(recorder StatusRecorder) *OrderMetricsHandler {
	return &OrderMetricsHandler{recorder: recorder}
}

func (h *OrderMetricsHandler) EventTypes() []string {
	return []string{order.EventTypeOrderStatusChanged}
}

func (h *OrderMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*order.OrderStatusChangedEvent)
	if !ok {
		return nil
	}
	h.recorder.RecordStatusChange(ctx, string(changed.From), string(changed.To))
	return nil
}

var _ shared.EventHandler = (*OrderMetricsHandler)(nil)
