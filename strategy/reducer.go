// Package strategy maps error-handling strategy names to reducers.
//
// A reducer runs once a stage has fully settled and decides which outcomes
// survive into the next stage. The registry keys reducers by name and by the
// success type they reduce; the error side is always Go's error interface.
//
// Built-in strategies are always available by name:
//
//	Ignore        keep only successes
//	Collect       keep everything
//	FailFast      keep only the first failure, if there is one
//	LogAndIgnore  like Ignore, but log each dropped failure
//	FirstError    same as FailFast
//
// Names are matched case-insensitively and accept snake_case and the
// "...Handler" suffix, so "fail_fast" and "FailFastHandler" both resolve to
// FailFast.
package strategy

import (
	"context"
	"strings"

	"github.com/kbukum/pipex/outcome"
)

// Name identifies a built-in strategy.
type Name string

const (
	Ignore       Name = "Ignore"
	Collect      Name = "Collect"
	FailFast     Name = "FailFast"
	LogAndIgnore Name = "LogAndIgnore"
	FirstError   Name = "FirstError"
)

// Builtins lists the built-in strategies.
var Builtins = []Name{Ignore, Collect, FailFast, LogAndIgnore, FirstError}

func (n Name) String() string { return string(n) }

// ParseName resolves s to a built-in strategy name.
func ParseName(s string) (Name, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSuffix(key, "handler")
	key = strings.ReplaceAll(key, "_", "")
	for _, n := range Builtins {
		if strings.ToLower(string(n)) == key {
			return n, true
		}
	}
	return "", false
}

// Reducer filters or transforms a settled stage sequence.
type Reducer[T any] interface {
	Reduce(ctx context.Context, seq []outcome.Outcome[T]) []outcome.Outcome[T]
}

// ReducerFunc adapts a function to Reducer.
type ReducerFunc[T any] func(ctx context.Context, seq []outcome.Outcome[T]) []outcome.Outcome[T]

// Reduce calls f.
func (f ReducerFunc[T]) Reduce(ctx context.Context, seq []outcome.Outcome[T]) []outcome.Outcome[T] {
	return f(ctx, seq)
}
