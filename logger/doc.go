// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Stages such as the
// ordered parallel map look up their logger by component name, so an
// application can redirect them with Register.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("parmap")
//	log.Info("pipeline started", logger.Fields("workers", 4))
package logger
