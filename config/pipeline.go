package config

import (
	"runtime"
	"time"

	"github.com/kbukum/pipex/errors"
	"github.com/kbukum/pipex/validation"
)

const (
	// DefaultStreamBuffer is the in-flight cap used when a streaming stage
	// does not name one.
	DefaultStreamBuffer = 10
	// DefaultCacheCapacity is the entry bound of memoization caches.
	DefaultCacheCapacity = 1000
	// DefaultOTLPEndpoint is the OTLP/HTTP collector address.
	DefaultOTLPEndpoint = "localhost:4318"
)

// PipelineConfig is the full configuration of a pipeline engine instance.
type PipelineConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Engine        EngineConfig        `yaml:"engine" mapstructure:"engine"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// EngineConfig holds the stage dispatcher and cache defaults.
type EngineConfig struct {
	// WorkerPoolSize is used by stages built with the context's default pool size.
	WorkerPoolSize int `yaml:"worker_pool_size" mapstructure:"worker_pool_size" validate:"gte=1"`
	// StreamBuffer is used by stages built with the context's default buffer.
	StreamBuffer int `yaml:"stream_buffer" mapstructure:"stream_buffer" validate:"gte=1"`
	// CacheCapacity bounds every memoization cache created by the context.
	CacheCapacity int `yaml:"cache_capacity" mapstructure:"cache_capacity" validate:"gte=1"`
	// DefaultStrategy is applied to stages that neither name a strategy nor
	// produce tagged outcomes. Empty means no reducer.
	DefaultStrategy string `yaml:"default_strategy" mapstructure:"default_strategy"`
	// StrictStrategies rejects unknown strategy names at stage construction
	// instead of degrading them to a pass-through.
	StrictStrategies bool `yaml:"strict_strategies" mapstructure:"strict_strategies"`
}

// ObservabilityConfig controls OpenTelemetry export.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// MetricsConfig configures OTLP metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills unset fields.
func (c *PipelineConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Engine.ApplyDefaults()

	if c.Observability.Metrics.Endpoint == "" {
		c.Observability.Metrics.Endpoint = DefaultOTLPEndpoint
	}
	if c.Observability.Metrics.Interval <= 0 {
		c.Observability.Metrics.Interval = 15 * time.Second
	}
	if c.Observability.Tracing.Endpoint == "" {
		c.Observability.Tracing.Endpoint = DefaultOTLPEndpoint
	}
	if c.Observability.Tracing.SampleRate == 0 {
		c.Observability.Tracing.SampleRate = 1.0
	}
	if c.Environment == EnvDevelopment {
		c.Observability.Metrics.Insecure = true
		c.Observability.Tracing.Insecure = true
	}
}

// ApplyDefaults fills unset engine fields.
func (e *EngineConfig) ApplyDefaults() {
	if e.WorkerPoolSize <= 0 {
		e.WorkerPoolSize = runtime.NumCPU()
	}
	if e.StreamBuffer <= 0 {
		e.StreamBuffer = DefaultStreamBuffer
	}
	if e.CacheCapacity <= 0 {
		e.CacheCapacity = DefaultCacheCapacity
	}
}

// Validate checks the service fields and the struct-tag constraints.
func (c *PipelineConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return errors.InvalidConfig(err.Error()).WithCause(err)
	}
	return validation.Validate(c)
}

// Load resolves, loads, defaults and validates a PipelineConfig for the
// named service.
func Load(serviceName string, opts ...LoaderOption) (*PipelineConfig, error) {
	cfg := &PipelineConfig{}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, errors.InvalidConfig(err.Error()).WithCause(err)
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
