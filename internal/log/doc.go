// Package log builds the slog loggers used by joblevel.
//
// Job postings carry long free-text cells and, sometimes, recruiter contact
// details. The TextHandler wraps any slog.Handler and, before a record is
// written:
//   - masks e-mail addresses and phone numbers found in string values
//   - truncates string values longer than MaxValueRunes
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("row dropped", "text", row) // long rows are shortened
package log
