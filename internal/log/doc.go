// Package log provides slog loggers that mask secrets before they are
// written.
//
// A crawl touches two kinds of secrets: the mothership bearer token and the
// per-site headers from the config file (usually a Cookie). Both can end up
// in log attributes, either directly or inside a URL query string.
// SecureHandler wraps any slog.Handler and replaces such values with
// MaskValue:
//   - attributes whose key names a credential (authorization, cookie, token, ...)
//   - string values that look like credentials (bearer strings, JWTs, long keys)
//   - credential query parameters inside URL values
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Debug("submitting", "url", "https://collector/results?token=abc")
//	// url=https://collector/results?token=***REDACTED***
package log
