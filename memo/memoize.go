package memo

// Key2 is the cache key of a two-argument function.
type Key2[A, B comparable] struct {
	A A
	B B
}

// Key3 is the cache key of a three-argument function.
type Key3[A, B, C comparable] struct {
	A A
	B B
	C C
}

// Func1 memoizes a one-argument function.
func Func1[A comparable, R any](fn func(A) R, opts ...Option[A, R]) (func(A) R, *Cache[A, R]) {
	c := New(opts...)
	return func(a A) R {
		return c.GetOrCompute(a, func() R { return fn(a) })
	}, c
}

// Func2 memoizes a two-argument function.
func Func2[A, B comparable, R any](fn func(A, B) R, opts ...Option[Key2[A, B], R]) (func(A, B) R, *Cache[Key2[A, B], R]) {
	c := New(opts...)
	return func(a A, b B) R {
		return c.GetOrCompute(Key2[A, B]{a, b}, func() R { return fn(a, b) })
	}, c
}

// Func3 memoizes a three-argument function.
func Func3[A, B, C comparable, R any](fn func(A, B, C) R, opts ...Option[Key3[A, B, C], R]) (func(A, B, C) R, *Cache[Key3[A, B, C], R]) {
	c := New(opts...)
	return func(a A, b B, cc C) R {
		return c.GetOrCompute(Key3[A, B, C]{a, b, cc}, func() R { return fn(a, b, cc) })
	}, c
}

// FuncErr memoizes a fallible one-argument function. Errors are not cached.
func FuncErr[A comparable, R any](fn func(A) (R, error), opts ...Option[A, R]) (func(A) (R, error), *Cache[A, R]) {
	c := New(opts...)
	return func(a A) (R, error) {
		return c.GetOrComputeErr(a, func() (R, error) { return fn(a) })
	}, c
}
