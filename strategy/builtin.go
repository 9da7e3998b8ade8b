package strategy

import (
	"context"

	"github.com/kbukum/pipex/logger"
	"github.com/kbukum/pipex/outcome"
)

// IgnoreReducer keeps only successes, in their relative order.
func IgnoreReducer[T any]() Reducer[T] {
	return ReducerFunc[T](func(_ context.Context, seq []outcome.Outcome[T]) []outcome.Outcome[T] {
		ok, _ := outcome.Partition(seq)
		return ok
	})
}

// CollectReducer returns the sequence unchanged.
func CollectReducer[T any]() Reducer[T] {
	return ReducerFunc[T](func(_ context.Context, seq []outcome.Outcome[T]) []outcome.Outcome[T] {
		return seq
	})
}

// FailFastReducer returns only the first failure when there is one, and the
// unchanged sequence otherwise.
func FailFastReducer[T any]() Reducer[T] {
	return ReducerFunc[T](func(_ context.Context, seq []outcome.Outcome[T]) []outcome.Outcome[T] {
		for _, o := range seq {
			if o.IsFailure() {
				return []outcome.Outcome[T]{o}
			}
		}
		return seq
	})
}

// LogAndIgnoreReducer keeps only successes and writes one warning per dropped
// failure to log.
func LogAndIgnoreReducer[T any](log *logger.Logger) Reducer[T] {
	return ReducerFunc[T](func(_ context.Context, seq []outcome.Outcome[T]) []outcome.Outcome[T] {
		ok, failed := outcome.Partition(seq)
		for _, o := range failed {
			log.Warn("pipeline error (ignored)", logger.Fields(
				logger.FieldStrategy, string(LogAndIgnore),
				logger.FieldError, o.Err.Error(),
			))
		}
		return ok
	})
}

// builtin returns the reducer for a built-in strategy.
func builtin[T any](n Name, log *logger.Logger) Reducer[T] {
	switch n {
	case Ignore:
		return IgnoreReducer[T]()
	case Collect:
		return CollectReducer[T]()
	case FailFast, FirstError:
		return FailFastReducer[T]()
	case LogAndIgnore:
		return LogAndIgnoreReducer[T](log)
	}
	return nil
}
