package pipeline

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/pipex/errors"
	"github.com/kbukum/pipex/outcome"
)

type stubBackend struct {
	available bool
	calls     int32
	batches   [][]int
	fn        func([]int) ([]int, error)
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) IsAvailable(context.Context) bool { return b.available }

func (b *stubBackend) Execute(_ context.Context, batch []int) ([]int, error) {
	atomic.AddInt32(&b.calls, 1)
	b.batches = append(b.batches, batch)
	return b.fn(batch)
}

func doubleBatch(batch []int) ([]int, error) {
	out := make([]int, len(batch))
	for i, n := range batch {
		out[i] = n * 2
	}
	return out, nil
}

func computeStage(mode Mode) Stage[int, int] {
	return Stage[int, int]{Name: "accel", Mode: mode}
}

func TestCompute_Success(t *testing.T) {
	backend := &stubBackend{available: true, fn: doubleBatch}
	out, err := Collect(context.Background(), testContext(), Then(FromSlice(oneToFive), computeStage(Compute[int, int](backend))))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, Values(out))
	assert.Equal(t, int32(1), backend.calls, "the whole stage is one batch")
}

func TestCompute_FailuresSkipBackend(t *testing.T) {
	backend := &stubBackend{available: true, fn: doubleBatch}
	rejectTwo := Map("reject", func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, stderrors.New("two")
		}
		return n, nil
	})

	out, err := Collect(context.Background(), testContext(), Then(Then(FromSlice([]int{1, 2, 3}), rejectTwo), computeStage(Compute[int, int](backend))))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, [][]int{{1, 3}}, backend.batches)
	assert.Equal(t, 2, out[0].Value)
	assert.EqualError(t, out[1].Err, "two")
	assert.Equal(t, 6, out[2].Value)
}

func TestCompute_BatchFailure(t *testing.T) {
	tests := []struct {
		name    string
		backend *stubBackend
		code    errors.ErrorCode
	}{
		{"unavailable", &stubBackend{available: false, fn: doubleBatch}, errors.ErrCodeComputeUnavailable},
		{"execute error", &stubBackend{available: true, fn: func([]int) ([]int, error) {
			return nil, stderrors.New("device lost")
		}}, errors.ErrCodeComputeFailed},
		{"short result", &stubBackend{available: true, fn: func(batch []int) ([]int, error) {
			return batch[:1], nil
		}}, errors.ErrCodeComputeFailed},
		{"panic", &stubBackend{available: true, fn: func([]int) ([]int, error) {
			panic("driver crash")
		}}, errors.ErrCodeComputeFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Collect(context.Background(), testContext(), Then(FromSlice([]int{1, 2, 3}), computeStage(Compute[int, int](tc.backend))))
			require.NoError(t, err)
			require.Len(t, out, 3)
			for i, o := range out {
				require.True(t, o.IsFailure())
				assert.Equal(t, tc.code, errors.CodeOf(o.Err))
				assert.Equal(t, i, o.Index)
			}
		})
	}
}

func TestCompute_Fallback(t *testing.T) {
	backend := &stubBackend{available: false, fn: doubleBatch}
	mode := Compute[int, int](backend, ComputeFallback(func(_ context.Context, n int) (int, error) {
		return n * 3, nil
	}))

	out, err := Collect(context.Background(), testContext(), Then(FromSlice([]int{1, 2, 3}), computeStage(mode)))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 6, 9}, Values(out))
	assert.Zero(t, backend.calls)
}

func TestCompute_FuncBackend(t *testing.T) {
	backend := FuncBackend[int, string]{
		BackendName: "labels",
		Fn: func(_ context.Context, batch []int) ([]string, error) {
			out := make([]string, len(batch))
			for i, n := range batch {
				out[i] = string(rune('a' + n - 1))
			}
			return out, nil
		},
	}
	stage := Stage[int, string]{Name: "label", Mode: Compute[int, string](backend)}

	out, err := Collect(context.Background(), testContext(), Then(FromSlice([]int{1, 2, 3}), stage))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, Values(out))
}

func TestCompute_TypeMismatch(t *testing.T) {
	backend := FuncBackend[string, int]{BackendName: "mismatched"}
	_, err := Collect(context.Background(), testContext(), Then(FromSlice(oneToFive), computeStage(Compute[string, int](backend))))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidStage, errors.CodeOf(err))
}

func TestCompute_EmptyBatch(t *testing.T) {
	backend := &stubBackend{available: true, fn: doubleBatch}
	seq := []outcome.Outcome[int]{outcome.Failure[int](stderrors.New("upstream"))}

	out, err := Collect(context.Background(), testContext(), Then(FromOutcomes(seq), computeStage(Compute[int, int](backend))))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsFailure())
	assert.Zero(t, backend.calls)
}
