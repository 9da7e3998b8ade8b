package outcome

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/pipex/errors"
)

func TestSuccessAndFailure(t *testing.T) {
	s := Success(42)
	assert.True(t, s.IsSuccess())
	assert.False(t, s.IsFailure())
	v, err := s.Get()
	assert.Equal(t, 42, v)
	assert.NoError(t, err)

	f := Failure[int](stderrors.New("boom"))
	assert.True(t, f.IsFailure())
	assert.EqualError(t, f.Err, "boom")
	assert.Zero(t, f.Value)
}

func TestFailureNilError(t *testing.T) {
	f := Failure[string](nil)
	assert.True(t, f.IsFailure())
}

func TestOf(t *testing.T) {
	assert.True(t, Of(1, nil).IsSuccess())
	assert.True(t, Of(1, stderrors.New("x")).IsFailure())
}

func TestTaggingAndIndex(t *testing.T) {
	o := Success("a").Tagged("collect").At(3)
	assert.Equal(t, "collect", o.Strategy)
	assert.Equal(t, 3, o.Index)
	assert.Empty(t, o.Untagged().Strategy)
	assert.Equal(t, 3, o.Untagged().Index)
}

func TestString(t *testing.T) {
	assert.Equal(t, "Success(7)", Success(7).String())
	assert.Equal(t, "Failure(bad)", Failure[int](stderrors.New("bad")).String())
}

func TestNormalize(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Normalize(nil))
	})

	t.Run("keeps text and debug form", func(t *testing.T) {
		err := Normalize(stderrors.New("disk full"))
		var ne *NormalizedError
		require.True(t, stderrors.As(err, &ne))
		assert.Equal(t, "disk full", ne.Message)
		assert.Contains(t, ne.Debug, "disk full")
	})

	t.Run("strips one level of quotes", func(t *testing.T) {
		err := Normalize(stderrors.New(`"bad input"`))
		assert.Equal(t, "bad input", err.Error())

		err = Normalize(stderrors.New(`""nested""`))
		assert.Equal(t, `"nested"`, err.Error())
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Normalize(fmt.Errorf(`"x"`))
		twice := Normalize(once)
		assert.Same(t, once, twice)
		assert.Equal(t, "x", twice.Error())
	})

	t.Run("records app error code", func(t *testing.T) {
		err := Normalize(errors.ItemPanic("square", "oops"))
		var ne *NormalizedError
		require.True(t, stderrors.As(err, &ne))
		assert.Equal(t, errors.ErrCodeItemPanic, ne.Code)
	})
}

func TestPassthrough(t *testing.T) {
	in := Failure[int](stderrors.New(`"lost"`)).Tagged("ignore").At(4)
	out := Passthrough[string](in)

	assert.True(t, out.IsFailure())
	assert.Equal(t, "lost", out.Err.Error())
	assert.Empty(t, out.Strategy)
	assert.Equal(t, 4, out.Index)
	assert.IsType(t, &NormalizedError{}, out.Err)
}

func TestSequenceHelpers(t *testing.T) {
	boom := stderrors.New("boom")
	seq := []Outcome[int]{
		Success(1).At(0),
		Failure[int](boom).At(1),
		Success(3).At(2).Tagged("collect"),
		Failure[int](boom).At(3),
	}

	assert.Equal(t, []int{1, 3}, Successes(seq))
	assert.Equal(t, []error{boom, boom}, Failures(seq))
	assert.Equal(t, 2, CountFailures(seq))
	assert.Equal(t, "collect", FirstTag(seq))

	ok, failed := Partition(seq)
	assert.Len(t, ok, 2)
	assert.Len(t, failed, 2)
	assert.Equal(t, 1, failed[0].Index)

	for _, o := range Untag(seq) {
		assert.Empty(t, o.Strategy)
	}
	assert.Equal(t, "collect", seq[2].Strategy, "Untag must not mutate its input")
}

func TestSortByIndex(t *testing.T) {
	seq := []Outcome[string]{
		Success("c").At(2),
		Success("a").At(0),
		Success("b").At(1),
	}
	SortByIndex(seq)
	assert.Equal(t, []string{"a", "b", "c"}, Successes(seq))

	Reindex(seq[1:])
	assert.Equal(t, 0, seq[1].Index)
}

func TestFromValues(t *testing.T) {
	seq := FromValues([]string{"x", "y"})
	require.Len(t, seq, 2)
	assert.Equal(t, 1, seq[1].Index)
	assert.Equal(t, "y", seq[1].Value)
}
