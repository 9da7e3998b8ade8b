// Package logger provides structured logging for the pipeline engine
// using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. Strategy reducers and
// the stage dispatcher write their diagnostic lines through it.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("strategy")
//	log.Warn("unknown strategy", logger.Fields(logger.FieldStrategy, name))
package logger
