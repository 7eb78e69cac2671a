// Package log provides secure logging on top of log/slog.
//
// SecureHandler wraps any slog.Handler and sanitizes records before they
// are written:
//   - values under sensitive keys (cookie, authorization, redis_password)
//     are replaced with MaskValue
//   - bearer and basic authorization values are replaced as well
//   - passwords inside URLs and DSNs are masked in place, so
//     postgres://crawler:pw@db/optovka is logged as
//     postgres://crawler:***REDACTED***@db/optovka
//
// NewSecureLogger renders through charmbracelet/log for the terminal;
// NewSecureJSONLogger writes JSON lines.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Info("store opened", "dsn", dsn)
package log
