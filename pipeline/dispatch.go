package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/pipex/errors"
	"github.com/kbukum/pipex/logger"
	"github.com/kbukum/pipex/observability"
	"github.com/kbukum/pipex/outcome"
	"github.com/kbukum/pipex/resilience"
	"github.com/kbukum/pipex/strategy"
)

// execute runs one stage over its settled input: dispatch, then reduce.
func (st *stageRun[I, O]) execute(ctx context.Context, seq []outcome.Outcome[I]) ([]outcome.Outcome[O], error) {
	pc := st.run.pc
	scope := observability.NewStageScope(pc.tracer, pc.metrics, st.run.id, st.name, st.mode.String())
	ctx, span := scope.Start(ctx, len(seq))

	out, err := st.dispatch(ctx, seq)
	if err != nil {
		scope.End(ctx, span, observability.StageSummary{Items: len(seq)}, err)
		return nil, err
	}

	failures := outcome.CountFailures(out)
	name := st.resolveStrategy(out)
	settled := len(out)
	if name != "" {
		out = strategy.Apply(ctx, pc.registry, name, out)
	}

	scope.End(ctx, span, observability.StageSummary{
		Items:    settled,
		Failures: failures,
		Strategy: name,
		Dropped:  settled - len(out),
	}, nil)

	st.log.Debug("stage settled", logger.MergeWithDuration(logger.Fields(
		logger.FieldRunID, st.run.id,
		logger.FieldStage, st.name,
		logger.FieldMode, st.mode.String(),
		logger.FieldItems, settled,
		logger.FieldFailures, failures,
		logger.FieldStrategy, name,
	), scope.Duration()))

	return out, nil
}

// resolveStrategy picks the reducer for a settled stage: the stage's own
// strategy, else the first tag on its outcomes, else the context default.
func (st *stageRun[I, O]) resolveStrategy(out []outcome.Outcome[O]) string {
	if st.strategy != "" {
		return st.strategy
	}
	if tag := outcome.FirstTag(out); tag != "" {
		return tag
	}
	return st.run.pc.engine.DefaultStrategy
}

func (st *stageRun[I, O]) dispatch(ctx context.Context, seq []outcome.Outcome[I]) ([]outcome.Outcome[O], error) {
	switch st.mode.kind {
	case KindSequential:
		return st.sequential(ctx, seq), nil
	case KindBoundedAsync:
		return st.boundedAsync(ctx, seq), nil
	case KindWorkerPool:
		return st.workerPool(ctx, seq), nil
	case KindStreaming:
		return st.streaming(ctx, seq), nil
	case KindCompute:
		return dispatchCompute(ctx, st, seq)
	}
	return nil, errors.InvalidStage(st.name, "unknown mode "+st.mode.String())
}

func (st *stageRun[I, O]) sequential(ctx context.Context, seq []outcome.Outcome[I]) []outcome.Outcome[O] {
	out := make([]outcome.Outcome[O], len(seq))
	for i, in := range seq {
		out[i] = st.apply(ctx, in)
	}
	return out
}

// boundedAsync starts one goroutine per item. Each writes its own slot, so
// the output keeps input order.
func (st *stageRun[I, O]) boundedAsync(ctx context.Context, seq []outcome.Outcome[I]) []outcome.Outcome[O] {
	out := make([]outcome.Outcome[O], len(seq))
	var g errgroup.Group
	for i, in := range seq {
		g.Go(func() error {
			out[i] = st.apply(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// workerPool feeds items to a fixed set of workers and collects outcomes in
// completion order.
func (st *stageRun[I, O]) workerPool(ctx context.Context, seq []outcome.Outcome[I]) []outcome.Outcome[O] {
	n := st.mode.size
	in := make(chan outcome.Outcome[I], n)
	results := make(chan outcome.Outcome[O], n)

	go func() {
		defer close(in)
		for _, item := range seq {
			in <- item
		}
	}()

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range in {
				results <- st.apply(ctx, item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]outcome.Outcome[O], 0, len(seq))
	for o := range results {
		out = append(out, o)
	}
	return out
}

// streaming admits an item only once it holds a bulkhead slot, so at most
// mode.size transforms run at once. Outcomes are collected in completion
// order. Items that cannot be admitted because ctx ended fail as CANCELED.
func (st *stageRun[I, O]) streaming(ctx context.Context, seq []outcome.Outcome[I]) []outcome.Outcome[O] {
	metrics := st.run.pc.metrics
	cfg := resilience.DefaultBulkheadConfig(st.name, st.mode.size)
	cfg.OnAcquire = func(string, int) { metrics.AddInFlight(ctx, st.name, 1) }
	cfg.OnRelease = func(string, int) { metrics.AddInFlight(ctx, st.name, -1) }
	gate := resilience.NewBulkhead(cfg)

	results := make(chan outcome.Outcome[O], len(seq))
	var wg sync.WaitGroup

	for i, item := range seq {
		if err := gate.Acquire(ctx); err != nil {
			for _, rest := range seq[i:] {
				if rest.IsFailure() {
					results <- outcome.Passthrough[O](rest)
				} else {
					results <- outcome.Failure[O](errors.Canceled(err)).At(rest.Index)
				}
			}
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer gate.Release()
			results <- st.apply(ctx, item)
		}()
	}

	wg.Wait()
	close(results)

	out := make([]outcome.Outcome[O], 0, len(seq))
	for o := range results {
		out = append(out, o)
	}
	return out
}
