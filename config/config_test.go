package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/pipex/errors"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected logging service name to follow name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPipelineConfigApplyDefaults(t *testing.T) {
	cfg := PipelineConfig{ServiceConfig: ServiceConfig{Name: "svc"}}
	cfg.ApplyDefaults()

	if cfg.Engine.WorkerPoolSize < 1 {
		t.Errorf("expected positive worker pool size, got %d", cfg.Engine.WorkerPoolSize)
	}
	if cfg.Engine.StreamBuffer != DefaultStreamBuffer {
		t.Errorf("expected stream buffer %d, got %d", DefaultStreamBuffer, cfg.Engine.StreamBuffer)
	}
	if cfg.Engine.CacheCapacity != DefaultCacheCapacity {
		t.Errorf("expected cache capacity %d, got %d", DefaultCacheCapacity, cfg.Engine.CacheCapacity)
	}
	if cfg.Observability.Metrics.Endpoint != DefaultOTLPEndpoint {
		t.Errorf("unexpected metrics endpoint %q", cfg.Observability.Metrics.Endpoint)
	}
	if cfg.Observability.Metrics.Interval != 15*time.Second {
		t.Errorf("unexpected metrics interval %v", cfg.Observability.Metrics.Interval)
	}
	if cfg.Observability.Tracing.SampleRate != 1.0 {
		t.Errorf("unexpected sample rate %v", cfg.Observability.Tracing.SampleRate)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestPipelineConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
		errMsg string
	}{
		{"missing name", func(c *PipelineConfig) { c.Name = "" }, "config.name is required"},
		{"zero pool", func(c *PipelineConfig) { c.Engine.WorkerPoolSize = 0 }, "engine.worker_pool_size"},
		{"zero buffer", func(c *PipelineConfig) { c.Engine.StreamBuffer = 0 }, "engine.stream_buffer"},
		{"sample rate above one", func(c *PipelineConfig) { c.Observability.Tracing.SampleRate = 2 }, "sample_rate"},
		{"bad endpoint", func(c *PipelineConfig) { c.Observability.Metrics.Endpoint = "not an endpoint" }, "metrics.endpoint"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := PipelineConfig{ServiceConfig: ServiceConfig{Name: "svc"}}
			cfg.ApplyDefaults()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
				t.Errorf("expected INVALID_CONFIG, got %v", errors.CodeOf(err))
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	content := `name: pipex-test
environment: production
logging:
  level: debug
  format: json
engine:
  worker_pool_size: 3
  stream_buffer: 2
  default_strategy: collect
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("pipex-test", WithConfigFile(cfgPath))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "pipex-test" || cfg.Environment != "production" {
		t.Errorf("unexpected service fields: %+v", cfg.ServiceConfig)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging: %+v", cfg.Logging)
	}
	if cfg.Engine.WorkerPoolSize != 3 || cfg.Engine.StreamBuffer != 2 {
		t.Errorf("unexpected engine: %+v", cfg.Engine)
	}
	if cfg.Engine.DefaultStrategy != "collect" {
		t.Errorf("expected collect, got %q", cfg.Engine.DefaultStrategy)
	}
	if cfg.Engine.CacheCapacity != DefaultCacheCapacity {
		t.Errorf("expected default cache capacity, got %d", cfg.Engine.CacheCapacity)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(cfgPath, []byte("name: svc\nengine:\n  stream_buffer: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENGINE_STREAM_BUFFER", "7")
	t.Setenv("ENGINE_CACHE_CAPACITY", "50")

	cfg, err := Load("svc", WithConfigFile(cfgPath), WithFileSystem(&mockFS{files: map[string]bool{cfgPath: true}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.StreamBuffer != 7 {
		t.Errorf("expected env override 7, got %d", cfg.Engine.StreamBuffer)
	}
	if cfg.Engine.CacheCapacity != 50 {
		t.Errorf("expected env-only key 50, got %d", cfg.Engine.CacheCapacity)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("nothing-here", WithFileSystem(&mockFS{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "nothing-here" {
		t.Errorf("expected service name fallback, got %q", cfg.Name)
	}
	if cfg.Engine.StreamBuffer != DefaultStreamBuffer {
		t.Errorf("expected default buffer, got %d", cfg.Engine.StreamBuffer)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(cfgPath, []byte("name: svc\nenvironment: moon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load("svc", WithConfigFile(cfgPath))
	if errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		filepath.Join("config", "svc.yml"): true,
		filepath.Join("..", ".env"):        true,
	}}
	r := &Resolver{FileSystem: fs}

	got := r.ResolveFiles("svc", LoaderConfig{})
	if got.ConfigFile != filepath.Join("config", "svc.yml") {
		t.Errorf("unexpected config file %q", got.ConfigFile)
	}
	if got.EnvFile != filepath.Join("..", ".env") {
		t.Errorf("unexpected env file %q", got.EnvFile)
	}
}

func TestResolverExplicitPathsWin(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"config.yml": true}}
	r := &Resolver{FileSystem: fs}

	got := r.ResolveFiles("svc", LoaderConfig{ConfigFile: "/etc/pipex.yml", EnvFile: "/etc/pipex.env"})
	if got.ConfigFile != "/etc/pipex.yml" || got.EnvFile != "/etc/pipex.env" {
		t.Errorf("explicit paths should be kept, got %+v", got)
	}
}

func TestLoadConfigLoadsEnvFile(t *testing.T) {
	fs := &mockFS{files: map[string]bool{".env": true}}
	var cfg PipelineConfig
	if err := LoadConfig("svc", &cfg, WithFileSystem(fs)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fs.loaded) != 1 || fs.loaded[0] != ".env" {
		t.Errorf("expected .env to be loaded, got %v", fs.loaded)
	}
}
