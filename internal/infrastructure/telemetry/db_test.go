package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "telemetry.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestInstrumentDB_PoolGauges(t *testing.T) {
	db := openTestDB(t)
	reader, mp := newManualMeter(t)

	require.NoError(t, InstrumentDB(db, config.TelemetryConfig{}, mp.Meter("test"), zap.NewNop()))
	require.NoError(t, db.Exec("SELECT 1").Error)

	got := collect(t, reader)
	assert.Contains(t, got, "db.pool.open_connections")
	assert.Contains(t, got, "db.pool.in_use")
	assert.Contains(t, got, "db.pool.idle")
	assert.Contains(t, got, "db.pool.wait_count")
}

func TestRegisterSpanAnnotations_MarksSlowQueries(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, registerSpanAnnotations(db, 0))

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	require.NoError(t, db.WithContext(ctx).Exec("CREATE TABLE widgets (id INTEGER)").Error)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.Contains(t, attrs, attribute.Key("db.rows_affected"))
}

func TestRegisterSpanAnnotations_FastQueryNotFlagged(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, registerSpanAnnotations(db, time.Hour))

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	require.NoError(t, db.WithContext(ctx).Exec("SELECT 1").Error)
	span.End()

	for _, kv := range rec.Ended()[0].Attributes() {
		assert.NotEqual(t, attribute.Key("db.slow_query"), kv.Key)
	}
}
