package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type runIDKey struct{}

// WithRunID stores a pipeline run ID in the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID stored by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// StartRun starts the span that parents every stage of one run.
func StartRun(ctx context.Context, tracer trace.Tracer, runID string, stages int) (context.Context, trace.Span) {
	ctx = WithRunID(ctx, runID)
	ctx, span := tracer.Start(ctx, SpanRun)
	span.SetAttributes(
		attribute.String(AttrRunID, runID),
		attribute.Int("pipex.stages", stages),
	)
	return ctx, span
}

// StageSummary is what a settled stage reports to its scope.
type StageSummary struct {
	Items    int
	Failures int
	Strategy string
	Dropped  int
}

// StageScope tracks the span and metrics of one stage execution.
// A nil Metrics skips metric recording.
type StageScope struct {
	RunID     string
	Stage     string
	Mode      string
	StartTime time.Time
	Metrics   *Metrics

	tracer trace.Tracer
}

// NewStageScope creates a scope for a stage about to run.
func NewStageScope(tracer trace.Tracer, metrics *Metrics, runID, stage, mode string) *StageScope {
	return &StageScope{
		RunID:     runID,
		Stage:     stage,
		Mode:      mode,
		StartTime: time.Now(),
		Metrics:   metrics,
		tracer:    tracer,
	}
}

// Start opens the stage span.
func (s *StageScope) Start(ctx context.Context, items int) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, SpanStage)
	span.SetAttributes(
		attribute.String(AttrRunID, s.RunID),
		attribute.String(AttrStage, s.Stage),
		attribute.String(AttrMode, s.Mode),
		attribute.Int(AttrItems, items),
	)
	return ctx, span
}

// End closes the span and records stage metrics. err is a stage-level
// failure; item failures are reported through sum.
func (s *StageScope) End(ctx context.Context, span trace.Span, sum StageSummary, err error) {
	duration := s.Duration()

	if err != nil {
		SetSpanError(span, err)
	}
	span.SetAttributes(
		attribute.Int(AttrFailures, sum.Failures),
		attribute.Int64("duration_ms", duration.Milliseconds()),
	)
	if sum.Strategy != "" {
		span.SetAttributes(attribute.String(AttrStrategy, sum.Strategy))
	}
	span.End()

	s.Metrics.RecordStage(ctx, s.Stage, s.Mode, duration)
	s.Metrics.RecordItems(ctx, s.Stage, StatusOK, sum.Items-sum.Failures)
	s.Metrics.RecordItems(ctx, s.Stage, StatusFailed, sum.Failures)
	s.Metrics.RecordItems(ctx, s.Stage, StatusDropped, sum.Dropped)
}

// Duration returns the elapsed time since the stage started.
func (s *StageScope) Duration() time.Duration {
	return time.Since(s.StartTime)
}
