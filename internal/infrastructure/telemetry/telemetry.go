// Package telemetry wires OpenTelemetry tracing, metrics and log export plus
// Pyroscope continuous profiling. Each signal is optional; a disabled signal
// leaves the global no-op provider in place.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// ServiceVersion is reported as service.version on every signal
var ServiceVersion = "dev"

// Config holds telemetry configuration
type Config struct {
	Enabled           bool // tracing
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool

	MetricsEnabled  bool
	MetricsInterval time.Duration

	LogsEnabled bool

	ProfilingEnabled bool
	ProfilerAddress  string
}

// Providers owns every telemetry signal started by Setup
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts the configured signals. On error, anything already started is
// shut down before returning.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{}
	fail := func(err error) (*Providers, error) {
		_ = p.Shutdown(context.Background())
		return nil, err
	}

	var err error
	if p.Tracer, err = NewTracerProvider(ctx, cfg, logger); err != nil {
		return fail(err)
	}
	if p.Meter, err = NewMeterProvider(ctx, cfg, logger); err != nil {
		return fail(err)
	}
	if p.Logs, err = NewLoggerProvider(ctx, cfg, logger); err != nil {
		return fail(err)
	}
	if p.Profiler, err = NewProfiler(cfg, logger); err != nil {
		return fail(err)
	}
	// Span profiles need both a running profiler and a real tracer provider
	if p.Profiler.IsEnabled() {
		p.Tracer.EnableSpanProfiles()
	}
	return p, nil
}

// Shutdown flushes and stops every started signal, joining their errors
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Profiler != nil {
		errs = append(errs, p.Profiler.Stop())
	}
	if p.Logs != nil {
		errs = append(errs, p.Logs.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdownTimeout bounds every provider flush on exit
const shutdownTimeout = 10 * time.Second
