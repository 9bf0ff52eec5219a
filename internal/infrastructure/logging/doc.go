// Package logging provides structured logging for sqlgate.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, or a file path
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("gateway listening", "port", 8080)
//	logger.Error("startup script failed", "error", err)
//
// # Security
//
// Never log shared secrets. Query text is logged only as a truncated prefix.
package logging
