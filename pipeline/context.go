package pipeline

import (
	"context"
	stderrors "errors"
	"reflect"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pipex/config"
	"github.com/kbukum/pipex/logger"
	"github.com/kbukum/pipex/memo"
	"github.com/kbukum/pipex/observability"
	"github.com/kbukum/pipex/strategy"
	"github.com/kbukum/pipex/version"
)

// Context owns everything a run shares across stages: the strategy registry,
// named memo caches, the logger, metrics and tracer, and the engine defaults.
// It is safe for concurrent use by many runs.
type Context struct {
	registry *strategy.Registry
	log      *logger.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
	engine   config.EngineConfig

	mu     sync.Mutex
	caches map[cacheKey]any
}

type cacheKey struct {
	name string
	typ  reflect.Type
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithRegistry uses r instead of a registry owned by the context.
func WithRegistry(r *strategy.Registry) ContextOption {
	return func(c *Context) { c.registry = r }
}

// WithLogger sets the context logger.
func WithLogger(l *logger.Logger) ContextOption {
	return func(c *Context) { c.log = l }
}

// WithMetrics records stage, reducer and cache metrics on m.
func WithMetrics(m *observability.Metrics) ContextOption {
	return func(c *Context) { c.metrics = m }
}

// WithTracer sets the tracer used for run and stage spans.
func WithTracer(t trace.Tracer) ContextOption {
	return func(c *Context) { c.tracer = t }
}

// WithEngineConfig sets the engine defaults. Unset fields get defaults.
func WithEngineConfig(e config.EngineConfig) ContextOption {
	return func(c *Context) { c.engine = e }
}

// NewContext creates a Context with its own strategy registry.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{caches: make(map[cacheKey]any)}
	for _, opt := range opts {
		opt(c)
	}
	c.engine.ApplyDefaults()
	if c.log == nil {
		c.log = logger.Get("pipeline")
	}
	if c.tracer == nil {
		c.tracer = observability.Tracer(observability.TracerName)
	}
	if c.registry == nil {
		regOpts := []strategy.Option{strategy.WithLogger(c.log.WithComponent("strategy"))}
		if c.metrics != nil {
			regOpts = append(regOpts, strategy.WithObserver(c.metrics))
		}
		c.registry = strategy.NewRegistry(regOpts...)
	}
	return c
}

var (
	defaultCtxOnce sync.Once
	defaultCtx     *Context
)

// DefaultContext returns the process-wide context. It shares
// strategy.Default() so reducers registered there are visible to it.
func DefaultContext() *Context {
	defaultCtxOnce.Do(func() {
		defaultCtx = NewContext(WithRegistry(strategy.Default()))
	})
	return defaultCtx
}

// NewContextFromConfig builds a Context from a loaded PipelineConfig. It sets
// up logging and, when enabled, OTLP metric and trace export. The returned
// shutdown function flushes the exporters.
func NewContextFromConfig(ctx context.Context, cfg *config.PipelineConfig, opts ...ContextOption) (*Context, func(context.Context) error, error) {
	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)

	serviceVersion := cfg.Version
	if serviceVersion == "" {
		serviceVersion = version.Get().Version
	}

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return stderrors.Join(errs...)
	}

	base := []ContextOption{
		WithLogger(log.WithComponent("pipeline")),
		WithEngineConfig(cfg.Engine),
	}

	if m := cfg.Observability.Metrics; m.Enabled {
		mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: serviceVersion,
			Environment:    cfg.Environment,
			Endpoint:       m.Endpoint,
			Insecure:       m.Insecure,
			Interval:       m.Interval,
		})
		if err != nil {
			return nil, nil, err
		}
		shutdowns = append(shutdowns, mp.Shutdown)

		metrics, err := observability.NewMetrics(mp.Meter(observability.TracerName))
		if err != nil {
			_ = shutdown(ctx)
			return nil, nil, err
		}
		base = append(base, WithMetrics(metrics))
	}

	if tc := cfg.Observability.Tracing; tc.Enabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: serviceVersion,
			Environment:    cfg.Environment,
			Endpoint:       tc.Endpoint,
			Insecure:       tc.Insecure,
			SampleRate:     tc.SampleRate,
		})
		if err != nil {
			_ = shutdown(ctx)
			return nil, nil, err
		}
		shutdowns = append(shutdowns, tp.Shutdown)
		base = append(base, WithTracer(tp.Tracer(observability.TracerName)))
	}

	return NewContext(append(base, opts...)...), shutdown, nil
}

// Registry returns the strategy registry used by runs on this context.
func (c *Context) Registry() *strategy.Registry { return c.registry }

// Logger returns the context logger.
func (c *Context) Logger() *logger.Logger { return c.log }

// Metrics returns the context metrics, which may be nil.
func (c *Context) Metrics() *observability.Metrics { return c.metrics }

// Engine returns the resolved engine defaults.
func (c *Context) Engine() config.EngineConfig { return c.engine }

// Memo returns the context's cache named name for key type K and value type
// V, creating it on first use with the engine's cache capacity. Calls with
// the same name and types share one cache.
func Memo[K comparable, V any](c *Context, name string, opts ...memo.Option[K, V]) *memo.Cache[K, V] {
	key := cacheKey{name: name, typ: reflect.TypeFor[*memo.Cache[K, V]]()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.caches[key]; ok {
		return existing.(*memo.Cache[K, V])
	}

	all := []memo.Option[K, V]{memo.WithCapacity[K, V](c.engine.CacheCapacity)}
	if c.metrics != nil {
		all = append(all, memo.WithObserver[K, V](name, c.metrics))
	}
	cache := memo.New(append(all, opts...)...)
	c.caches[key] = cache
	return cache
}
