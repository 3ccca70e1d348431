// Package logging provides structured logging for the hotspoter daemon and CLI.
//
// This package wraps a global zap logger with convenience functions for the
// events the daemon cares about: radio mode transitions, service start/stop
// actions, portal HTTP requests and WebSocket pushes.
//
// # Log Levels
//
//   - Debug: command output, skipped scan lines, WebSocket payloads
//   - Info: mode transitions, scan and join results, portal requests
//   - Warn: service actions that failed, rejected requests
//   - Error: startup failures, listener errors
//
// # Structured Logging
//
//	logging.Info("Join attempt finished",
//	    zap.String("ssid", "Home Net"),
//	    zap.Bool("succeeded", true),
//	)
//
// Passphrases are never logged. Callers pass SSIDs only.
//
// # Configuration
//
// Initialize logging once at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the HOTSPOTER_LOG_LEVEL environment variable.
// When neither is set the logger is silent, which keeps CLI output clean.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
