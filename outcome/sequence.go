package outcome

import (
	"cmp"
	"slices"
)

// Successes returns the success values in sequence order.
func Successes[T any](seq []Outcome[T]) []T {
	out := make([]T, 0, len(seq))
	for _, o := range seq {
		if o.IsSuccess() {
			out = append(out, o.Value)
		}
	}
	return out
}

// Failures returns the failure errors in sequence order.
func Failures[T any](seq []Outcome[T]) []error {
	var out []error
	for _, o := range seq {
		if o.IsFailure() {
			out = append(out, o.Err)
		}
	}
	return out
}

// Partition splits seq into its successful and failed outcomes, keeping the
// relative order of each.
func Partition[T any](seq []Outcome[T]) (ok, failed []Outcome[T]) {
	for _, o := range seq {
		if o.IsSuccess() {
			ok = append(ok, o)
		} else {
			failed = append(failed, o)
		}
	}
	return ok, failed
}

// CountFailures returns the number of failed outcomes.
func CountFailures[T any](seq []Outcome[T]) int {
	n := 0
	for _, o := range seq {
		if o.IsFailure() {
			n++
		}
	}
	return n
}

// SortByIndex sorts seq in place by Index. Outcomes sharing an index keep
// their relative order.
func SortByIndex[T any](seq []Outcome[T]) {
	slices.SortStableFunc(seq, func(a, b Outcome[T]) int {
		return cmp.Compare(a.Index, b.Index)
	})
}

// Reindex sets each outcome's Index to its current position.
func Reindex[T any](seq []Outcome[T]) {
	for i := range seq {
		seq[i].Index = i
	}
}

// Untag returns a copy of seq with every strategy tag cleared.
func Untag[T any](seq []Outcome[T]) []Outcome[T] {
	out := make([]Outcome[T], len(seq))
	for i, o := range seq {
		out[i] = o.Untagged()
	}
	return out
}

// FirstTag returns the first non-empty strategy tag in seq, or "".
func FirstTag[T any](seq []Outcome[T]) string {
	for _, o := range seq {
		if o.Strategy != "" {
			return o.Strategy
		}
	}
	return ""
}

// FromValues wraps values as successes indexed by position.
func FromValues[T any](values []T) []Outcome[T] {
	out := make([]Outcome[T], len(values))
	for i, v := range values {
		out[i] = Outcome[T]{Value: v, Index: i}
	}
	return out
}
