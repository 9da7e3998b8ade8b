package strategy

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/kbukum/pipex/logger"
	"github.com/kbukum/pipex/outcome"
)

// Observer is notified after every applied reducer.
type Observer interface {
	ReducerApplied(ctx context.Context, strategy string, in, out int)
	UnknownStrategy(ctx context.Context, strategy string)
}

type key struct {
	name string
	typ  reflect.Type
}

// Registry holds reducers keyed by (name, success type).
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	reducers map[key]any
	names    map[string]struct{}
	log      *logger.Logger
	observer Observer
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for diagnostics and by LogAndIgnore.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithObserver sets the observer notified after each reduction.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry creates an empty registry. Built-ins need no registration.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		reducers: make(map[key]any),
		names:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register stores reducer under (name, T). A later registration under the
// same key replaces the earlier one.
func Register[T any](r *Registry, name string, reducer Reducer[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reducers[key{name: name, typ: reflect.TypeFor[T]()}] = reducer
	r.names[name] = struct{}{}
}

// RegisterFunc is Register for a plain function.
func RegisterFunc[T any](r *Registry, name string, fn func(context.Context, []outcome.Outcome[T]) []outcome.Outcome[T]) {
	Register[T](r, name, ReducerFunc[T](fn))
}

// Lookup returns the reducer for (name, T): a registered one first, then the
// built-in of that name.
func Lookup[T any](r *Registry, name string) (Reducer[T], bool) {
	r.mu.RLock()
	red, ok := r.reducers[key{name: name, typ: reflect.TypeFor[T]()}]
	r.mu.RUnlock()
	if ok {
		return red.(Reducer[T]), true
	}
	if n, ok := ParseName(name); ok {
		return builtin[T](n, r.logger()), true
	}
	return nil, false
}

// Apply reduces seq with the strategy registered under (name, T). Unknown
// names log a warning and return seq unchanged. The result carries no
// strategy tags.
func Apply[T any](ctx context.Context, r *Registry, name string, seq []outcome.Outcome[T]) []outcome.Outcome[T] {
	red, ok := Lookup[T](r, name)
	if !ok {
		r.logger().Warn("unknown strategy, passing sequence through", logger.Fields(logger.FieldStrategy, name))
		if r.observer != nil {
			r.observer.UnknownStrategy(ctx, name)
		}
		return seq
	}

	out := outcome.Untag(red.Reduce(ctx, seq))
	if r.observer != nil {
		r.observer.ReducerApplied(ctx, name, len(seq), len(out))
	}
	return out
}

// Known reports whether name resolves to a built-in or has been registered
// for any success type.
func (r *Registry) Known(name string) bool {
	if _, ok := ParseName(name); ok {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Names returns the registered (non built-in) strategy names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) logger() *logger.Logger {
	if r.log != nil {
		return r.log
	}
	return logger.Get("strategy")
}
