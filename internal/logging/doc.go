// Package logging provides structured logging utilities for gmcli.
//
// All diagnostics go through log/slog to stderr so that command output on
// stdout stays machine-readable. The helpers here keep attribute names
// consistent across packages.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "gmail.send")
//	logger.Info("message sent", logging.MessageID(id), logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
//   - Email addresses are hashed with UserHash before logging
//   - Tokens are never logged directly; use SanitizeToken
package logging
