// Package validation validates engine configuration.
//
// Struct tag validation (using the go-playground validator) covers the
// declarative constraints of configuration structs; the programmatic
// Validator collects cross-field checks that tags cannot express.
//
//	type EngineConfig struct {
//	    WorkerPoolSize int `mapstructure:"worker_pool_size" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
//	v := validation.New()
//	v.Check(cfg.Interval > 0, "interval", "must be positive")
//	err := v.Validate()
package validation
