// Package telemetry wires OpenTelemetry tracing, metrics and logs, and the
// Pyroscope continuous profiler. Every provider degrades to a no-op when its
// switch in config.TelemetryConfig is off.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

// Providers bundles the telemetry components built at startup
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup builds every provider from cfg. The profiler starts before tracing so
// span profiles can be attached to the tracer provider.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	p := &Providers{}

	if p.Profiler, err = NewProfiler(cfg, logger); err != nil {
		return nil, err
	}
	if p.Tracer, err = NewTracerProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, p.Profiler.Stop())
	}
	if p.Profiler.IsEnabled() {
		p.Tracer.EnableSpanProfiles()
	}
	if p.Meter, err = NewMeterProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	if p.Logs, err = NewLoggerProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	return p, nil
}

// Shutdown flushes and stops the providers in reverse start order
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Logs != nil {
		errs = append(errs, p.Logs.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Profiler != nil {
		errs = append(errs, p.Profiler.Stop())
	}
	return errors.Join(errs...)
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}
