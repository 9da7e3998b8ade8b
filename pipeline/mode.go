package pipeline

import (
	"fmt"

	"github.com/kbukum/pipex/errors"
)

// ModeKind enumerates the dispatch strategies of a stage.
type ModeKind int

const (
	// KindSequential runs items one at a time on the driver goroutine.
	KindSequential ModeKind = iota
	// KindBoundedAsync starts one goroutine per item and waits for all.
	KindBoundedAsync
	// KindWorkerPool runs items on a fixed number of workers.
	KindWorkerPool
	// KindStreaming keeps at most a fixed number of items in flight.
	KindStreaming
	// KindCompute sends all successes to a ComputeBackend as one batch.
	KindCompute
)

func (k ModeKind) String() string {
	switch k {
	case KindSequential:
		return "sequential"
	case KindBoundedAsync:
		return "bounded-async"
	case KindWorkerPool:
		return "worker-pool"
	case KindStreaming:
		return "streaming"
	case KindCompute:
		return "compute"
	default:
		return fmt.Sprintf("mode(%d)", int(k))
	}
}

// Mode selects how a stage dispatches its items. The zero Mode is Sequential.
type Mode struct {
	kind ModeKind
	size int
	// useDefault takes size from the run's EngineConfig.
	useDefault bool
	// compute holds a ComputeBackend[I, O] and its options; it is type-checked
	// against the stage when the stage runs.
	compute computeSpec
}

// Sequential processes items one at a time, in input order.
func Sequential() Mode { return Mode{kind: KindSequential} }

// BoundedAsync starts every item at once and waits for all of them. Output
// keeps input order.
func BoundedAsync() Mode { return Mode{kind: KindBoundedAsync} }

// WorkerPool processes items on n workers. Output is in completion order.
// n < 1 fails the stage.
func WorkerPool(n int) Mode { return Mode{kind: KindWorkerPool, size: n} }

// DefaultWorkerPool is WorkerPool sized by EngineConfig.WorkerPoolSize.
func DefaultWorkerPool() Mode { return Mode{kind: KindWorkerPool, useDefault: true} }

// Streaming keeps at most buffer items in flight, admitting the next item as
// soon as one completes. Output is in completion order. buffer < 1 fails the
// stage.
func Streaming(buffer int) Mode { return Mode{kind: KindStreaming, size: buffer} }

// DefaultStreaming is Streaming sized by EngineConfig.StreamBuffer.
func DefaultStreaming() Mode { return Mode{kind: KindStreaming, useDefault: true} }

// Kind returns the dispatch kind.
func (m Mode) Kind() ModeKind { return m.kind }

// Size returns the worker count or stream buffer. It is 0 for other kinds
// and for modes that take their size from the engine config.
func (m Mode) Size() int { return m.size }

// Ordered reports whether the mode emits outcomes in input order.
func (m Mode) Ordered() bool {
	return m.kind != KindWorkerPool && m.kind != KindStreaming
}

func (m Mode) String() string {
	switch m.kind {
	case KindWorkerPool, KindStreaming:
		if m.useDefault {
			return m.kind.String() + "(default)"
		}
		return fmt.Sprintf("%s(%d)", m.kind, m.size)
	case KindCompute:
		if m.compute != nil {
			return fmt.Sprintf("compute(%s)", m.compute.backendName())
		}
	}
	return m.kind.String()
}

// resolve fills a default size from the engine config and validates the mode.
func (m Mode) resolve(stage string, workers, buffer int) (Mode, error) {
	if m.useDefault {
		switch m.kind {
		case KindWorkerPool:
			m.size = workers
		case KindStreaming:
			m.size = buffer
		}
		m.useDefault = false
	}

	switch m.kind {
	case KindSequential, KindBoundedAsync:
	case KindWorkerPool:
		if m.size < 1 {
			return m, errors.InvalidStage(stage, fmt.Sprintf("worker pool size must be at least 1, got %d", m.size))
		}
	case KindStreaming:
		if m.size < 1 {
			return m, errors.InvalidStage(stage, fmt.Sprintf("stream buffer must be at least 1, got %d", m.size))
		}
	case KindCompute:
		if m.compute == nil || m.compute.isNil() {
			return m, errors.InvalidStage(stage, "compute mode requires a backend")
		}
	default:
		return m, errors.InvalidStage(stage, fmt.Sprintf("unknown mode %s", m.kind))
	}
	return m, nil
}
