package pipeline

import (
	"context"
	"fmt"

	"github.com/kbukum/pipex/errors"
	"github.com/kbukum/pipex/logger"
	"github.com/kbukum/pipex/outcome"
)

// ComputeBackend executes a whole stage batch at once, for example on an
// accelerator. Execute must return exactly one result per input, in order.
type ComputeBackend[I, O any] interface {
	// Name returns the backend name used in logs and errors.
	Name() string
	// IsAvailable reports whether the backend can accept work.
	IsAvailable(ctx context.Context) bool
	// Execute processes the batch.
	Execute(ctx context.Context, batch []I) ([]O, error)
}

// FuncBackend adapts a batch function to ComputeBackend. It is always
// available.
type FuncBackend[I, O any] struct {
	BackendName string
	Fn          func(ctx context.Context, batch []I) ([]O, error)
}

// Name implements ComputeBackend.
func (b FuncBackend[I, O]) Name() string { return b.BackendName }

// IsAvailable implements ComputeBackend.
func (b FuncBackend[I, O]) IsAvailable(context.Context) bool { return true }

// Execute implements ComputeBackend.
func (b FuncBackend[I, O]) Execute(ctx context.Context, batch []I) ([]O, error) {
	return b.Fn(ctx, batch)
}

// ComputeOption configures a compute mode.
type ComputeOption[I, O any] func(*computeMode[I, O])

// ComputeFallback runs fn per item on the CPU when the backend is unavailable
// or fails, instead of failing the whole batch.
func ComputeFallback[I, O any](fn Transform[I, O]) ComputeOption[I, O] {
	return func(m *computeMode[I, O]) { m.fallback = fn }
}

// Compute dispatches a stage to backend. A nil backend fails the stage.
func Compute[I, O any](backend ComputeBackend[I, O], opts ...ComputeOption[I, O]) Mode {
	cm := &computeMode[I, O]{backend: backend}
	for _, opt := range opts {
		opt(cm)
	}
	return Mode{kind: KindCompute, compute: cm}
}

type computeSpec interface {
	backendName() string
	isNil() bool
}

type computeMode[I, O any] struct {
	backend  ComputeBackend[I, O]
	fallback Transform[I, O]
}

func (m *computeMode[I, O]) backendName() string {
	if m.backend == nil {
		return "<nil>"
	}
	return m.backend.Name()
}

func (m *computeMode[I, O]) isNil() bool { return m.backend == nil }

// dispatchCompute sends every success in seq to the backend as one batch.
// Failures in seq pass through normalized. Output keeps input order.
func dispatchCompute[I, O any](ctx context.Context, st *stageRun[I, O], seq []outcome.Outcome[I]) ([]outcome.Outcome[O], error) {
	cm, ok := st.mode.compute.(*computeMode[I, O])
	if !ok {
		return nil, errors.InvalidStage(st.name, fmt.Sprintf("compute backend %s does not match the stage types", st.mode.compute.backendName()))
	}

	out := make([]outcome.Outcome[O], len(seq))
	var batch []I
	var positions []int
	for i, in := range seq {
		if in.IsFailure() {
			out[i] = outcome.Passthrough[O](in)
			continue
		}
		batch = append(batch, in.Value)
		positions = append(positions, i)
	}
	if len(batch) == 0 {
		return out, nil
	}

	results, err := executeBatch(ctx, cm.backend, batch)
	if err == nil {
		for j, pos := range positions {
			out[pos] = outcome.Success(results[j]).At(seq[pos].Index)
		}
		return out, nil
	}

	if cm.fallback != nil {
		st.log.Warn("compute backend failed, falling back to per-item transform", logger.Fields(
			logger.FieldStage, st.name,
			logger.FieldBackend, cm.backend.Name(),
			logger.FieldItems, len(batch),
			logger.FieldError, err.Error(),
		))
		fb := &stageRun[I, O]{name: st.name, transform: cm.fallback}
		for _, pos := range positions {
			out[pos] = fb.apply(ctx, seq[pos])
		}
		return out, nil
	}

	for _, pos := range positions {
		out[pos] = outcome.Failure[O](err).At(seq[pos].Index)
	}
	return out, nil
}

func executeBatch[I, O any](ctx context.Context, backend ComputeBackend[I, O], batch []I) (results []O, err error) {
	name := backend.Name()
	if !backend.IsAvailable(ctx) {
		return nil, errors.ComputeUnavailable(name)
	}

	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = errors.ComputeFailed(name, fmt.Errorf("backend panicked: %v", r))
		}
	}()

	results, err = backend.Execute(ctx, batch)
	if err != nil {
		return nil, errors.ComputeFailed(name, err)
	}
	if len(results) != len(batch) {
		return nil, errors.ComputeFailed(name, fmt.Errorf("backend returned %d results for %d items", len(results), len(batch)))
	}
	return results, nil
}
