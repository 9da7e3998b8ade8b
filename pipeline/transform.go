package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/pipex/errors"
	"github.com/kbukum/pipex/outcome"
)

// WithStrategy wraps fn so that every outcome it produces, success or
// failure, is tagged with the named strategy. A stage without an explicit
// Strategy is reduced by the first tag it finds.
//
//	stage := pipeline.Stage[string, int]{
//	    Name:    "parse",
//	    Mode:    pipeline.BoundedAsync(),
//	    Outcome: pipeline.WithStrategy("LogAndIgnore", parse),
//	}
func WithStrategy[I, O any](name string, fn Transform[I, O]) OutcomeTransform[I, O] {
	return func(ctx context.Context, in I) outcome.Outcome[O] {
		v, err := fn(ctx, in)
		return outcome.Of(v, err).Tagged(name)
	}
}

// WithTimeout races fn against d. When d elapses first the item fails with a
// TIMEOUT error and fn's context is canceled; fn keeps running until it
// observes the cancellation, and its late result is discarded.
func WithTimeout[I, O any](d time.Duration, fn Transform[I, O]) Transform[I, O] {
	type result struct {
		val O
		err error
	}
	return func(ctx context.Context, in I) (O, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- result{err: errors.ItemPanic("timeout", r)}
				}
			}()
			v, err := fn(ctx, in)
			done <- result{val: v, err: err}
		}()

		select {
		case r := <-done:
			return r.val, r.err
		case <-ctx.Done():
			var zero O
			if ctx.Err() == context.DeadlineExceeded {
				return zero, errors.Timeout("transform", d)
			}
			return zero, errors.Canceled(ctx.Err())
		}
	}
}
