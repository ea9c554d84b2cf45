package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics records storefront outcomes: orders placed, their value,
// stock contention and the best-effort steps that failed.
type BusinessMetrics struct {
	ordersPlaced         metric.Int64Counter
	orderValue           metric.Float64Histogram
	unitsSold            metric.Int64Counter
	reservationFailures  metric.Int64Counter
	compensationFailures metric.Int64Counter
	cartClearFailures    metric.Int64Counter
	statusTransitions    metric.Int64Counter
}

// NewBusinessMetrics creates the instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		bm  BusinessMetrics
		err error
	)
	if bm.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders placed successfully")); err != nil {
		return nil, err
	}
	if bm.orderValue, err = meter.Float64Histogram("storefront.orders.value",
		metric.WithDescription("Order grand total"),
		metric.WithExplicitBucketBoundaries(50, 100, 250, 500, 1000, 2500, 5000, 10000)); err != nil {
		return nil, err
	}
	if bm.unitsSold, err = meter.Int64Counter("storefront.orders.units",
		metric.WithDescription("Units across all placed orders"), metric.WithUnit("{unit}")); err != nil {
		return nil, err
	}
	if bm.reservationFailures, err = meter.Int64Counter("storefront.stock.reservation_failures",
		metric.WithDescription("Stock reservations refused, by reason")); err != nil {
		return nil, err
	}
	if bm.compensationFailures, err = meter.Int64Counter("storefront.orders.compensation_failures",
		metric.WithDescription("Reservations that could not be released after a failed order")); err != nil {
		return nil, err
	}
	if bm.cartClearFailures, err = meter.Int64Counter("storefront.carts.clear_failures",
		metric.WithDescription("Carts left uncleared after a successful order")); err != nil {
		return nil, err
	}
	if bm.statusTransitions, err = meter.Int64Counter("storefront.orders.status_transitions",
		metric.WithDescription("Order status transitions delivered from the outbox")); err != nil {
		return nil, err
	}
	return &bm, nil
}

func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, total decimal.Decimal, units int) {
	bm.ordersPlaced.Add(ctx, 1)
	bm.orderValue.Record(ctx, total.InexactFloat64())
	bm.unitsSold.Add(ctx, int64(units))
}

func (bm *BusinessMetrics) RecordReservationFailure(ctx context.Context, reason string) {
	bm.reservationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (bm *BusinessMetrics) RecordCompensationFailure(ctx context.Context) {
	bm.compensationFailures.Add(ctx, 1)
}

func (bm *BusinessMetrics) RecordCartClearFailure(ctx context.Context) {
	bm.cartClearFailures.Add(ctx, 1)
}

func (bm *BusinessMetrics) RecordStatusChange(ctx context.Context, from, to string) {
	bm.statusTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
