// Package logging provides structured logging for the tsm control loop.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support for debugging and post-hoc analysis. It is
// designed to help troubleshoot scaling behavior by providing structured,
// filterable logs that can be analyzed after the fact.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (component, service, tick, phase)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//   - Log aggregation and filtering utilities
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger writing to a log file:
//
//	logger, err := logging.NewLogger("/var/log/tsm/tsm.log", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	// Log messages at various levels
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("operation completed", "duration_ms", 150)
//	logger.Warn("potential issue", "threshold", 100)
//	logger.Error("operation failed", "error", err.Error())
//
// An empty path writes to stderr, which is useful for foreground runs.
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	// Add component context
//	loopLogger := logger.WithComponent("loop")
//
//	// Add tick context
//	tickLogger := loopLogger.WithTick("tick-abc123")
//
//	// Add service context
//	svcLogger := tickLogger.WithService("web")
//
//	// All logs from svcLogger will include component, tick, and service
//	svcLogger.Info("scaling service", "from", 2, "to", 4)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"scaling service","component":"loop","tick":"tick-abc123","service":"web","from":2,"to":4}
//
// # Log Rotation
//
// For long-running monitors, use log rotation to prevent unbounded growth:
//
//	config := logging.RotationConfig{
//	    MaxSizeMB:  10,    // Rotate when file exceeds 10MB
//	    MaxBackups: 3,     // Keep 3 backup files
//	    Compress:   true,  // Gzip compress rotated files
//	}
//
//	logger, err := logging.NewLoggerWithRotation("/var/log/tsm/tsm.log", "INFO", config)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
// Rotated files are named: tsm.log.1, tsm.log.2, etc., where .1 is the
// most recent backup. When compression is enabled, rotated files become
// tsm.log.1.gz, etc.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output:
//
//	func TestSomething(t *testing.T) {
//	    logger := logging.NopLogger()
//	    // Use logger in tests without creating files
//	}
//
// # Log Aggregation and Filtering
//
// Read and analyze logs after a run:
//
//	// Load all logs from the log file
//	entries, err := logging.AggregateLogs("/var/log/tsm/tsm.log")
//	if err != nil {
//	    return err
//	}
//
//	// Filter logs by various criteria
//	filter := logging.LogFilter{
//	    Level:     "WARN",        // Minimum level
//	    Service:   "web",         // Specific service
//	    Phase:     "reconciling", // Specific loop phase
//	    StartTime: time.Now().Add(-1 * time.Hour), // Last hour
//	}
//	filtered := logging.FilterLogs(entries, filter)
//
//	// Export to various formats
//	logging.ExportLogEntries(filtered, "errors.json", "json")
//	logging.ExportLogEntries(filtered, "errors.txt", "text")
//	logging.ExportLogEntries(filtered, "errors.csv", "csv")
//
// # Log Levels
//
// The package defines four log levels:
//
//   - [LevelDebug]: Detailed information for debugging
//   - [LevelInfo]: General operational information (default)
//   - [LevelWarn]: Warning conditions that may need attention
//   - [LevelError]: Error conditions that affect functionality
//
// Use [ValidLevels] to get the list of valid level strings, and [ParseLevel]
// to normalize user-provided level strings.
//
// # Configuration
//
// The logging system is typically configured via tsm's config file:
//
//	log:
//	  level: info
//	  file: /var/log/tsm/tsm.log
//	  max_size_mb: 10
//	  max_backups: 3
//
// Run "tsm initconfig" to generate a commented starter config covering
// these settings.
package logging
