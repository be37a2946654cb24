// Package logging provides structured logging for netregistry.
//
// It wraps log/slog so every component logs the same way: JSON for
// production, text for development, default service/version fields on
// every entry, level filtering from configuration.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8080)
//	apiLog := logger.With("component", "api")
//
// Never log secrets or tokens.
package logging
