package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/pipex/logger"
	"github.com/kbukum/pipex/observability"
	"github.com/kbukum/pipex/outcome"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Pipeline is a lazy chain of stages. No work happens until it is run with
// Collect, Drain or ForEach. Each stage settles completely before the next
// one starts, so reducers always see a whole stage.
type Pipeline[T any] struct {
	create func(ctx context.Context, r *run) Iterator[outcome.Outcome[T]]
	stages int
}

// run carries per-execution state down the stage chain.
type run struct {
	pc *Context
	id string
}

// Runnable is a fully-configured pipeline ready to execute.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run executes the pipeline until completion, a stage-construction error or
// a sink error.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// --- Constructors ---

// FromSlice creates a pipeline whose input is items, all successes.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context, *run) Iterator[outcome.Outcome[T]] {
			return &sliceIter[outcome.Outcome[T]]{items: outcome.FromValues(items)}
		},
	}
}

// FromOutcomes creates a pipeline from an existing outcome sequence, for
// example the output of an earlier run. Indexes are reset to positions.
func FromOutcomes[T any](seq []outcome.Outcome[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context, *run) Iterator[outcome.Outcome[T]] {
			items := make([]outcome.Outcome[T], len(seq))
			copy(items, seq)
			outcome.Reindex(items)
			return &sliceIter[outcome.Outcome[T]]{items: items}
		},
	}
}

// FromIterator creates a pipeline that pulls its input from iter. An error
// from iter aborts the run.
func FromIterator[T any](iter Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context, *run) Iterator[outcome.Outcome[T]] {
			return &valueIter[T]{source: iter}
		},
	}
}

// Then appends stage to p.
func Then[I, O any](p *Pipeline[I], stage Stage[I, O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context, r *run) Iterator[outcome.Outcome[O]] {
			return &stageIter[I, O]{source: p.create(ctx, r), stage: stage, run: r}
		},
		stages: p.stages + 1,
	}
}

// Stages returns the number of stages in the chain.
func (p *Pipeline[T]) Stages() int { return p.stages }

// --- Terminals ---

// Collect runs the pipeline on pc (DefaultContext when nil) and returns the
// final stage's outcomes. A stage-construction failure aborts the run and is
// returned as an *errors.AppError with code INVALID_STAGE.
func Collect[T any](ctx context.Context, pc *Context, p *Pipeline[T]) ([]outcome.Outcome[T], error) {
	var out []outcome.Outcome[T]
	err := Drain(pc, p, func(_ context.Context, o outcome.Outcome[T]) error {
		out = append(out, o)
		return nil
	}).Run(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Drain creates a Runnable that runs p and sends each final outcome to sink.
func Drain[T any](pc *Context, p *Pipeline[T], sink func(context.Context, outcome.Outcome[T]) error) *Runnable {
	if pc == nil {
		pc = DefaultContext()
	}
	return &Runnable{
		run: func(ctx context.Context) error {
			r := &run{pc: pc, id: uuid.NewString()}
			ctx, span := observability.StartRun(ctx, pc.tracer, r.id, p.stages)
			defer span.End()

			iter := p.create(ctx, r)
			defer iter.Close()
			for {
				o, ok, err := iter.Next(ctx)
				if err != nil {
					observability.SetSpanError(span, err)
					pc.log.Error("pipeline run aborted", logger.Fields(
						logger.FieldRunID, r.id,
						logger.FieldError, err.Error(),
					))
					return err
				}
				if !ok {
					return nil
				}
				if err := sink(ctx, o); err != nil {
					return err
				}
			}
		},
	}
}

// ForEach runs p and calls fn for each final outcome.
func ForEach[T any](ctx context.Context, pc *Context, p *Pipeline[T], fn func(context.Context, outcome.Outcome[T]) error) error {
	return Drain(pc, p, fn).Run(ctx)
}

// Values returns the success values of seq.
func Values[T any](seq []outcome.Outcome[T]) []T {
	return outcome.Successes(seq)
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

// valueIter wraps plain values from a source iterator as successes.
type valueIter[T any] struct {
	source Iterator[T]
	index  int
}

func (it *valueIter[T]) Next(ctx context.Context) (outcome.Outcome[T], bool, error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return outcome.Outcome[T]{}, false, err
	}
	o := outcome.Success(val).At(it.index)
	it.index++
	return o, true, nil
}

func (it *valueIter[T]) Close() error { return it.source.Close() }

// stageIter pulls its whole input, runs the stage once, then yields the
// settled outcomes.
type stageIter[I, O any] struct {
	source Iterator[outcome.Outcome[I]]
	stage  Stage[I, O]
	run    *run

	settled bool
	out     sliceIter[outcome.Outcome[O]]
}

func (it *stageIter[I, O]) Next(ctx context.Context) (outcome.Outcome[O], bool, error) {
	if !it.settled {
		if err := it.settle(ctx); err != nil {
			return outcome.Outcome[O]{}, false, err
		}
	}
	return it.out.Next(ctx)
}

func (it *stageIter[I, O]) settle(ctx context.Context) error {
	st, err := bind(it.stage, it.run)
	if err != nil {
		return err
	}

	var seq []outcome.Outcome[I]
	for {
		o, ok, err := it.source.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		seq = append(seq, o)
	}
	outcome.Reindex(seq)

	out, err := st.execute(ctx, seq)
	if err != nil {
		return err
	}
	it.out.items = out
	it.settled = true
	return nil
}

func (it *stageIter[I, O]) Close() error { return it.source.Close() }
