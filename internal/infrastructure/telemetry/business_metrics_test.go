package telemetry

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestBusinessMetrics_RecordOrderPlaced(t *testing.T) {
	reader, mp := newManualMeter(t)
	bm, err := NewBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOrderPlaced(ctx, decimal.RequireFromString("286.00"), 2)
	bm.RecordOrderPlaced(ctx, decimal.RequireFromString("708.00"), 6)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["storefront.orders.placed"]))
	assert.Equal(t, int64(8), sumOf(t, got["storefront.orders.units"]))

	hist, ok := got["storefront.orders.value"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.InDelta(t, 994.0, hist.DataPoints[0].Sum, 0.001)
}

func TestBusinessMetrics_Failures(t *testing.T) {
	reader, mp := newManualMeter(t)
	bm, err := NewBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordReservationFailure(ctx, "out_of_stock")
	bm.RecordReservationFailure(ctx, "out_of_stock")
	bm.RecordReservationFailure(ctx, "product_not_found")
	bm.RecordCompensationFailure(ctx)
	bm.RecordCartClearFailure(ctx)

	got := collect(t, reader)
	assert.Equal(t, int64(3), sumOf(t, got["storefront.stock.reservation_failures"]))
	assert.Equal(t, int64(1), sumOf(t, got["storefront.orders.compensation_failures"]))
	assert.Equal(t, int64(1), sumOf(t, got["storefront.carts.clear_failures"]))

	sum := got["storefront.stock.reservation_failures"].Data.(metricdata.Sum[int64])
	byReason := map[string]int64{}
	for _, dp := range sum.DataPoints {
		reason, _ := dp.Attributes.Value(attribute.Key("reason"))
		byReason[reason.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"out_of_stock": 2, "product_not_found": 1}, byReason)
}

func TestBusinessMetrics_RecordStatusChange(t *testing.T) {
	reader, mp := newManualMeter(t)
	bm, err := NewBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	bm.RecordStatusChange(context.Background(), "pending", "confirmed")

	sum := collect(t, reader)["storefront.orders.status_transitions"].Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	to, _ := sum.DataPoints[0].Attributes.Value("to")
	assert.Equal(t, "confirmed", to.AsString())
}
