package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/pipex/logger"
	"github.com/kbukum/pipex/memo"
	"github.com/kbukum/pipex/strategy"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service embedding the engine.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (development, staging, production).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Item statuses recorded on pipex.items.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusDropped = "dropped"
)

// Metrics holds the engine's metric instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	stageRuns      metric.Int64Counter
	stageDuration  metric.Float64Histogram
	stageInFlight  metric.Int64UpDownCounter
	items          metric.Int64Counter
	reducerApplied metric.Int64Counter
	reducerDropped metric.Int64Counter
	unknownStrat   metric.Int64Counter
	cacheEvents    metric.Int64Counter
}

var (
	_ strategy.Observer = (*Metrics)(nil)
	_ memo.Observer     = (*Metrics)(nil)
)

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.stageRuns, err = meter.Int64Counter("pipex.stage.runs",
		metric.WithDescription("Stages executed, by stage and mode"),
	); err != nil {
		return nil, fmt.Errorf("creating pipex.stage.runs counter: %w", err)
	}

	if m.stageDuration, err = meter.Float64Histogram("pipex.stage.duration",
		metric.WithDescription("Wall time of a stage from dispatch to settled"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating pipex.stage.duration histogram: %w", err)
	}

	if m.stageInFlight, err = meter.Int64UpDownCounter("pipex.stage.inflight",
		metric.WithDescription("Transforms currently running in streaming stages"),
	); err != nil {
		return nil, fmt.Errorf("creating pipex.stage.inflight gauge: %w", err)
	}

	if m.items, err = meter.Int64Counter("pipex.items",
		metric.WithDescription("Settled items, by stage and status"),
	); err != nil {
		return nil, fmt.Errorf("creating pipex.items counter: %w", err)
	}

	if m.reducerApplied, err = meter.Int64Counter("pipex.reducer.applied",
		metric.WithDescription("Reducer invocations, by strategy"),
	); err != nil {
		return nil, fmt.Errorf("creating pipex.reducer.applied counter: %w", err)
	}

	if m.reducerDropped, err = meter.Int64Counter("pipex.reducer.dropped",
		metric.WithDescription("Outcomes removed by reducers, by strategy"),
	); err != nil {
		return nil, fmt.Errorf("creating pipex.reducer.dropped counter: %w", err)
	}

	if m.unknownStrat, err = meter.Int64Counter("pipex.strategy.unknown",
		metric.WithDescription("Lookups of unregistered strategy names"),
	); err != nil {
		return nil, fmt.Errorf("creating pipex.strategy.unknown counter: %w", err)
	}

	if m.cacheEvents, err = meter.Int64Counter("pipex.cache.events",
		metric.WithDescription("Memo cache hits, misses and skipped inserts"),
	); err != nil {
		return nil, fmt.Errorf("creating pipex.cache.events counter: %w", err)
	}

	return &m, nil
}

// RecordStage records one completed stage.
func (m *Metrics) RecordStage(ctx context.Context, stage, mode string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String(AttrMode, mode),
	)
	m.stageRuns.Add(ctx, 1, attrs)
	m.stageDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordItems adds n items with the given status for a stage.
func (m *Metrics) RecordItems(ctx context.Context, stage, status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.items.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String(AttrStatus, status),
	))
}

// AddInFlight moves the in-flight gauge of a streaming stage by delta.
func (m *Metrics) AddInFlight(ctx context.Context, stage string, delta int) {
	if m == nil {
		return
	}
	m.stageInFlight.Add(ctx, int64(delta), metric.WithAttributes(attribute.String(AttrStage, stage)))
}

// ReducerApplied records one reduction that turned in outcomes into out.
func (m *Metrics) ReducerApplied(ctx context.Context, name string, in, out int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStrategy, name))
	m.reducerApplied.Add(ctx, 1, attrs)
	if dropped := in - out; dropped > 0 {
		m.reducerDropped.Add(ctx, int64(dropped), attrs)
	}
}

// UnknownStrategy records a lookup of an unregistered strategy name.
func (m *Metrics) UnknownStrategy(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.unknownStrat.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStrategy, name)))
}

// CacheHit records a memo cache hit.
func (m *Metrics) CacheHit(cache string) { m.cacheEvent(cache, "hit") }

// CacheMiss records a memo cache miss.
func (m *Metrics) CacheMiss(cache string) { m.cacheEvent(cache, "miss") }

// CacheSkip records a computed value that was not stored because the cache was full.
func (m *Metrics) CacheSkip(cache string) { m.cacheEvent(cache, "skip") }

func (m *Metrics) cacheEvent(cache, event string) {
	if m == nil {
		return
	}
	m.cacheEvents.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(AttrCache, cache),
		attribute.String(AttrEvent, event),
	))
}
