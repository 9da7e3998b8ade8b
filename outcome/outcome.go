// Package outcome defines the per-item result container that flows between
// pipeline stages.
//
// An Outcome is either a success carrying a value or a failure carrying an
// error. It may be tagged with the name of the error-handling strategy that
// should reduce its stage, and it remembers its position in the stage input
// so that unordered modes can be re-sorted.
package outcome

import (
	"errors"
	"fmt"
)

// errNilFailure replaces a nil error handed to Failure.
var errNilFailure = errors.New("failure with nil error")

// Outcome is the result of processing one item.
type Outcome[T any] struct {
	// Value is the success value. It is the zero value on failure.
	Value T
	// Err is non-nil exactly when the outcome is a failure.
	Err error
	// Strategy names the reducer requested for this outcome's stage.
	Strategy string
	// Index is the item's position in the stage input sequence.
	Index int
}

// Success returns a successful outcome.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Failure returns a failed outcome. A nil err is replaced by a placeholder
// so the outcome still reports as a failure.
func Failure[T any](err error) Outcome[T] {
	if err == nil {
		err = errNilFailure
	}
	return Outcome[T]{Err: err}
}

// Of builds an outcome from a (value, error) pair.
func Of[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// IsSuccess reports whether the outcome holds a value.
func (o Outcome[T]) IsSuccess() bool { return o.Err == nil }

// IsFailure reports whether the outcome holds an error.
func (o Outcome[T]) IsFailure() bool { return o.Err != nil }

// Get returns the value and error pair.
func (o Outcome[T]) Get() (T, error) { return o.Value, o.Err }

// Tagged returns a copy tagged with the given strategy name.
func (o Outcome[T]) Tagged(strategy string) Outcome[T] {
	o.Strategy = strategy
	return o
}

// Untagged returns a copy without a strategy tag.
func (o Outcome[T]) Untagged() Outcome[T] {
	o.Strategy = ""
	return o
}

// At returns a copy positioned at index i.
func (o Outcome[T]) At(i int) Outcome[T] {
	o.Index = i
	return o
}

func (o Outcome[T]) String() string {
	if o.Err != nil {
		return fmt.Sprintf("Failure(%v)", o.Err)
	}
	return fmt.Sprintf("Success(%v)", o.Value)
}

// Passthrough converts a failed outcome of one stage into a failure of the
// next stage's output type. The error is normalized and the strategy tag is
// dropped; the index is kept.
func Passthrough[O, I any](o Outcome[I]) Outcome[O] {
	return Outcome[O]{Err: Normalize(o.Err), Index: o.Index}
}
