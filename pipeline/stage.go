package pipeline

import (
	"context"

	"github.com/kbukum/pipex/errors"
	"github.com/kbukum/pipex/logger"
	"github.com/kbukum/pipex/outcome"
)

// Transform processes one item.
type Transform[I, O any] func(ctx context.Context, in I) (O, error)

// OutcomeTransform processes one item and returns its outcome directly,
// usually so it can carry a strategy tag.
type OutcomeTransform[I, O any] func(ctx context.Context, in I) outcome.Outcome[O]

// Stage describes one step of a pipeline. Exactly one of Transform and
// Outcome must be set.
type Stage[I, O any] struct {
	// Name identifies the stage in logs, spans and errors.
	Name string
	// Mode selects the dispatch strategy. The zero value is Sequential.
	Mode Mode
	// Transform is the per-item function.
	Transform Transform[I, O]
	// Outcome is the per-item function for transforms that tag their results.
	Outcome OutcomeTransform[I, O]
	// Strategy names the reducer applied once the stage settles. When empty
	// the first tag on the settled outcomes is used, then the context default.
	Strategy string
}

// Map builds a sequential stage.
func Map[I, O any](name string, fn Transform[I, O]) Stage[I, O] {
	return Stage[I, O]{Name: name, Mode: Sequential(), Transform: fn}
}

// Async builds a bounded-async stage.
func Async[I, O any](name string, fn Transform[I, O]) Stage[I, O] {
	return Stage[I, O]{Name: name, Mode: BoundedAsync(), Transform: fn}
}

// Parallel builds a worker-pool stage with n workers.
func Parallel[I, O any](name string, n int, fn Transform[I, O]) Stage[I, O] {
	return Stage[I, O]{Name: name, Mode: WorkerPool(n), Transform: fn}
}

// Stream builds a streaming stage with the given in-flight buffer.
func Stream[I, O any](name string, buffer int, fn Transform[I, O]) Stage[I, O] {
	return Stage[I, O]{Name: name, Mode: Streaming(buffer), Transform: fn}
}

// WithMode returns a copy of the stage using mode m.
func (s Stage[I, O]) WithMode(m Mode) Stage[I, O] {
	s.Mode = m
	return s
}

// WithStrategy returns a copy of the stage reduced by the named strategy.
func (s Stage[I, O]) WithStrategy(name string) Stage[I, O] {
	s.Strategy = name
	return s
}

// stageRun is a validated stage bound to one run.
type stageRun[I, O any] struct {
	name      string
	mode      Mode
	transform Transform[I, O]
	outcomeFn OutcomeTransform[I, O]
	strategy  string
	log       *logger.Logger
	run       *run
}

// bind validates s against the run's context.
func bind[I, O any](s Stage[I, O], r *run) (*stageRun[I, O], error) {
	name := s.Name
	if name == "" {
		name = "unnamed"
	}

	if s.Transform == nil && s.Outcome == nil && s.Mode.kind != KindCompute {
		return nil, errors.InvalidStage(name, "stage has no transform")
	}
	if s.Transform != nil && s.Outcome != nil {
		return nil, errors.InvalidStage(name, "stage sets both Transform and Outcome")
	}

	engine := r.pc.engine
	mode, err := s.Mode.resolve(name, engine.WorkerPoolSize, engine.StreamBuffer)
	if err != nil {
		return nil, err
	}

	if s.Strategy != "" && engine.StrictStrategies && !r.pc.registry.Known(s.Strategy) {
		return nil, errors.InvalidStage(name, "unknown strategy "+s.Strategy)
	}

	return &stageRun[I, O]{
		name:      name,
		mode:      mode,
		transform: s.Transform,
		outcomeFn: s.Outcome,
		strategy:  s.Strategy,
		log:       r.pc.log,
		run:       r,
	}, nil
}

// apply settles one item. Failed inputs are never passed to the transform;
// they pass through with a normalized error. A panicking transform becomes an
// ITEM_PANIC failure.
func (st *stageRun[I, O]) apply(ctx context.Context, in outcome.Outcome[I]) (out outcome.Outcome[O]) {
	if in.IsFailure() {
		return outcome.Passthrough[O](in)
	}
	if err := ctx.Err(); err != nil {
		return outcome.Failure[O](errors.Canceled(err)).At(in.Index)
	}

	defer func() {
		if r := recover(); r != nil {
			out = outcome.Failure[O](errors.ItemPanic(st.name, r)).At(in.Index)
		}
	}()

	if st.outcomeFn != nil {
		return st.outcomeFn(ctx, in.Value).At(in.Index)
	}
	v, err := st.transform(ctx, in.Value)
	return outcome.Of(v, err).At(in.Index)
}
