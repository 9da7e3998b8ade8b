package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

// sumOf returns the total of an Int64 sum metric across data points that
// carry every attribute in want.
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string, want ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if hasAll(dp.Attributes, want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAll(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func TestDefaultConfigs(t *testing.T) {
	tc := DefaultTracerConfig("svc")
	assert.Equal(t, "svc", tc.ServiceName)
	assert.Equal(t, "localhost:4318", tc.Endpoint)
	assert.Equal(t, 1.0, tc.SampleRate)
	assert.True(t, tc.Insecure)

	mc := DefaultMeterConfig("svc")
	assert.Equal(t, 15*time.Second, mc.Interval)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), Sampler(0).Description())
	assert.Contains(t, Sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestMetrics_StageAndItems(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordStage(ctx, "double", "sequential", 10*time.Millisecond)
	m.RecordItems(ctx, "double", StatusOK, 4)
	m.RecordItems(ctx, "double", StatusFailed, 1)
	m.RecordItems(ctx, "double", StatusDropped, 0)

	assert.Equal(t, int64(1), sumOf(t, reader, "pipex.stage.runs", attribute.String(AttrStage, "double")))
	assert.Equal(t, int64(4), sumOf(t, reader, "pipex.items", attribute.String(AttrStatus, StatusOK)))
	assert.Equal(t, int64(1), sumOf(t, reader, "pipex.items", attribute.String(AttrStatus, StatusFailed)))
	assert.Equal(t, int64(0), sumOf(t, reader, "pipex.items", attribute.String(AttrStatus, StatusDropped)))
}

func TestMetrics_Reducers(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ReducerApplied(ctx, "Ignore", 5, 3)
	m.ReducerApplied(ctx, "Collect", 5, 5)
	m.UnknownStrategy(ctx, "Retry")

	assert.Equal(t, int64(2), sumOf(t, reader, "pipex.reducer.applied"))
	assert.Equal(t, int64(2), sumOf(t, reader, "pipex.reducer.dropped", attribute.String(AttrStrategy, "Ignore")))
	assert.Equal(t, int64(1), sumOf(t, reader, "pipex.strategy.unknown", attribute.String(AttrStrategy, "Retry")))
}

func TestMetrics_Cache(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.CacheHit("squares")
	m.CacheHit("squares")
	m.CacheMiss("squares")
	m.CacheSkip("squares")

	assert.Equal(t, int64(2), sumOf(t, reader, "pipex.cache.events", attribute.String(AttrEvent, "hit")))
	assert.Equal(t, int64(1), sumOf(t, reader, "pipex.cache.events", attribute.String(AttrEvent, "miss")))
	assert.Equal(t, int64(1), sumOf(t, reader, "pipex.cache.events", attribute.String(AttrEvent, "skip")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordStage(ctx, "s", "sequential", time.Millisecond)
	m.RecordItems(ctx, "s", StatusOK, 1)
	m.AddInFlight(ctx, "s", 1)
	m.ReducerApplied(ctx, "Ignore", 2, 1)
	m.UnknownStrategy(ctx, "x")
	m.CacheHit("c")
}

func TestRunID(t *testing.T) {
	assert.Empty(t, RunIDFromContext(context.Background()))
	ctx := WithRunID(context.Background(), "run-1")
	assert.Equal(t, "run-1", RunIDFromContext(ctx))
}

func TestStageScope_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")
	m, reader := newTestMetrics(t)

	ctx, run := StartRun(context.Background(), tracer, "run-1", 1)
	assert.Equal(t, "run-1", RunIDFromContext(ctx))

	scope := NewStageScope(tracer, m, "run-1", "square", "worker-pool(2)")
	sctx, span := scope.Start(ctx, 5)
	scope.End(sctx, span, StageSummary{Items: 5, Failures: 2, Strategy: "Ignore", Dropped: 2}, nil)

	failing := NewStageScope(tracer, nil, "run-1", "broken", "worker-pool(0)")
	fctx, fspan := failing.Start(ctx, 0)
	failing.End(fctx, fspan, StageSummary{}, errors.New("invalid stage"))
	run.End()

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	stage := spans[0]
	assert.Equal(t, SpanStage, stage.Name())
	assert.Equal(t, run.SpanContext().SpanID(), stage.Parent().SpanID())
	attrs := attribute.NewSet(stage.Attributes()...)
	v, _ := attrs.Value(AttrStage)
	assert.Equal(t, "square", v.AsString())
	v, _ = attrs.Value(AttrFailures)
	assert.Equal(t, int64(2), v.AsInt64())
	v, _ = attrs.Value(AttrStrategy)
	assert.Equal(t, "Ignore", v.AsString())

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, SpanRun, spans[2].Name())

	assert.Equal(t, int64(3), sumOf(t, reader, "pipex.items", attribute.String(AttrStatus, StatusOK)))
	assert.Equal(t, int64(2), sumOf(t, reader, "pipex.items", attribute.String(AttrStatus, StatusDropped)))
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()
	require.NotNil(t, span)
	assert.Equal(t, span.SpanContext(), SpanFromContext(ctx).SpanContext())
}

func TestSetSpanError_NotRecording(t *testing.T) {
	_, span := StartSpan(context.Background(), "op")
	SetSpanError(span, errors.New("ignored"))
	SetSpanError(span, nil)
	span.End()
}
