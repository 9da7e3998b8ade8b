// Package config loads and validates pipeline engine configuration.
//
// It uses Viper to read a YAML file and environment variables, and godotenv
// to seed the environment from a .env file. Environment variables override
// file values; nested keys are matched from underscore-separated names
// (ENGINE_WORKER_POOL_SIZE -> engine.worker_pool_size).
//
// # Usage
//
//	cfg, err := config.Load("pipex")
//	if err != nil {
//	    return err
//	}
//	pc, err := pipeline.NewContextFromConfig(cfg)
package config
