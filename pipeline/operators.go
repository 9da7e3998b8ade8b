package pipeline

import (
	"context"

	"github.com/kbukum/pipex/outcome"
)

// Filter drops successes for which keep returns false. Failures pass
// through untouched. Filter is not a stage: it does not dispatch, reduce or
// log.
func Filter[T any](p *Pipeline[T], keep func(T) bool) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context, r *run) Iterator[outcome.Outcome[T]] {
			return &filterIter[T]{source: p.create(ctx, r), fn: keep}
		},
		stages: p.stages,
	}
}

// Tap calls fn for each outcome as a side effect and passes the outcome
// through unchanged. An error from fn aborts the run.
func Tap[T any](p *Pipeline[T], fn func(context.Context, outcome.Outcome[T]) error) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context, r *run) Iterator[outcome.Outcome[T]] {
			return &tapIter[T]{source: p.create(ctx, r), fn: fn}
		},
		stages: p.stages,
	}
}

// Concat joins pipelines end to end. All outcomes of the first are yielded
// before the second, and so on. The next stage reindexes them by position.
func Concat[T any](pipelines ...*Pipeline[T]) *Pipeline[T] {
	stages := 0
	for _, p := range pipelines {
		stages += p.stages
	}
	return &Pipeline[T]{
		create: func(ctx context.Context, r *run) Iterator[outcome.Outcome[T]] {
			iters := make([]Iterator[outcome.Outcome[T]], len(pipelines))
			for i, p := range pipelines {
				iters[i] = p.create(ctx, r)
			}
			return &concatIter[outcome.Outcome[T]]{iters: iters}
		},
		stages: stages,
	}
}

type filterIter[T any] struct {
	source Iterator[outcome.Outcome[T]]
	fn     func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (outcome.Outcome[T], bool, error) {
	for {
		o, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return o, false, err
		}
		if o.IsFailure() || it.fn(o.Value) {
			return o, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }

type tapIter[T any] struct {
	source Iterator[outcome.Outcome[T]]
	fn     func(context.Context, outcome.Outcome[T]) error
}

func (it *tapIter[T]) Next(ctx context.Context) (outcome.Outcome[T], bool, error) {
	o, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return o, ok, err
	}
	if err := it.fn(ctx, o); err != nil {
		return outcome.Outcome[T]{}, false, err
	}
	return o, true, nil
}

func (it *tapIter[T]) Close() error { return it.source.Close() }

type concatIter[T any] struct {
	iters []Iterator[T]
	index int
}

func (it *concatIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	for it.index < len(it.iters) {
		val, ok, err := it.iters[it.index].Next(ctx)
		if err != nil {
			return val, false, err
		}
		if ok {
			return val, true, nil
		}
		it.index++
	}
	var zero T
	return zero, false, nil
}

func (it *concatIter[T]) Close() error {
	var firstErr error
	for _, iter := range it.iters {
		if err := iter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
