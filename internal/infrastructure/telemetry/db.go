package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQueryThreshold = 200 * time.Millisecond
	queryStartKey             = "telemetry:query_start"
)

// InstrumentDB adds otelgorm spans, slow-query marking and connection pool
// gauges to db. Tracing follows cfg.DBTraceEnabled; pool gauges are always
// registered on meter.
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) error {
	if cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("register otelgorm: %w", err)
		}

		thresh := cfg.DBSlowQueryThresh
		if thresh <= 0 {
			thresh = defaultSlowQueryThreshold
		}
		if err := registerSpanAnnotations(db, thresh); err != nil {
			return err
		}
		logger.Info("Database tracing enabled",
			zap.Bool("log_full_sql", cfg.DBLogFullSQL),
			zap.Duration("slow_query_threshold", thresh),
		)
	}

	return registerPoolGauges(db, meter)
}

func registerSpanAnnotations(db *gorm.DB, thresh time.Duration) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	annotate := func(tx *gorm.DB) {
		annotateSpan(tx, thresh)
	}

	// the after hooks run before otelgorm ends the span
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", start),
		cb.Create().After("gorm:create").Before("otel:after:create").Register("telemetry:after_create", annotate),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", start),
		cb.Query().After("gorm:query").Before("otel:after:query").Register("telemetry:after_query", annotate),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", start),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("telemetry:after_update", annotate),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", start),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("telemetry:after_delete", annotate),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", start),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("telemetry:after_row", annotate),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", start),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("telemetry:after_raw", annotate),
	)
}

// annotateSpan adds table, row count, error status and the slow-query flag to the statement's span
func annotateSpan(tx *gorm.DB, thresh time.Duration) {
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))

	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}

	v, ok := tx.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	started, ok := v.(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(started); elapsed > thresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

// registerPoolGauges exposes database/sql pool statistics as observable gauges
func registerPoolGauges(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	open, err := meter.Int64ObservableGauge("db.pool.open_connections", metric.WithDescription("Open connections, in use plus idle"))
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("db.pool.in_use", metric.WithDescription("Connections currently in use"))
	if err != nil {
		return err
	}
	idle, err := meter.Int64ObservableGauge("db.pool.idle", metric.WithDescription("Idle connections"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db.pool.wait_count", metric.WithDescription("Total waits for a connection"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(idle, int64(stats.Idle))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, idle, waits)
	return err
}
