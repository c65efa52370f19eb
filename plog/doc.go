// Package plog provides structured logging for the pipeline engine
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := plog.Get("my-component")
//	log.Info("operation completed", plog.Fields("key", "value"))
package plog
