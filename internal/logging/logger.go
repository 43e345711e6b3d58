package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger provides structured logging with context propagation.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	writer *RotatingWriter
	mu     sync.Mutex  // Protects writer operations
	attrs  []slog.Attr // Persistent attributes (component, service, tick)
}

// NewLogger creates a new Logger that writes JSON-formatted logs to the
// given file path, rotating with DefaultRotationConfig once the file grows
// too large.
//
// The level parameter controls which messages are logged:
//   - DEBUG: All messages
//   - INFO: Info, Warn, and Error messages
//   - WARN: Warn and Error messages
//   - ERROR: Only Error messages
//
// If path is empty, logs will be written to stderr.
func NewLogger(path string, level string) (*Logger, error) {
	return NewLoggerWithRotation(path, level, DefaultRotationConfig())
}

// NewLoggerWithRotation creates a new Logger with an explicit rotation
// configuration. A MaxSizeMB of 0 disables rotation.
func NewLoggerWithRotation(path string, level string, rc RotationConfig) (*Logger, error) {
	var writer io.Writer
	var rw *RotatingWriter

	if path != "" {
		var err error
		rw, err = NewRotatingWriter(path, rc)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = rw
	} else {
		writer = os.Stderr
	}

	slogLevel := parseLevel(level)

	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}

	handler := slog.NewJSONHandler(writer, opts)

	return &Logger{
		logger: slog.New(handler),
		writer: rw,
		attrs:  make([]slog.Attr, 0),
	}, nil
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a new Logger with the component name added to all
// log entries. Components might include: "loop", "sampler", "reconciler",
// "projector", "watcher".
func (l *Logger) WithComponent(component string) *Logger {
	return l.withAttr(slog.String("component", component))
}

// WithService returns a new Logger with the service name added to all log
// entries. This creates a child logger that inherits all existing attributes.
func (l *Logger) WithService(service string) *Logger {
	return l.withAttr(slog.String("service", service))
}

// WithTick returns a new Logger with the tick correlation ID added to all
// log entries. This creates a child logger that inherits all existing
// attributes.
func (l *Logger) WithTick(tickID string) *Logger {
	return l.withAttr(slog.String("tick", tickID))
}

// WithPhase returns a new Logger with the loop phase added to all log
// entries. Phases are "sampling", "deciding", "reconciling", "projecting".
func (l *Logger) WithPhase(phase string) *Logger {
	return l.withAttr(slog.String("phase", phase))
}

// With returns a new Logger with arbitrary key-value attributes.
// Keys and values are provided as alternating arguments.
// This creates a child logger that inherits all existing attributes.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	newAttrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2)
	newAttrs = append(newAttrs, l.attrs...)

	// Convert args to slog.Attr
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		newAttrs = append(newAttrs, slog.Any(key, args[i+1]))
	}

	return &Logger{
		logger: l.logger,
		writer: l.writer,
		attrs:  newAttrs,
	}
}

// withAttr creates a new Logger with an additional attribute.
func (l *Logger) withAttr(attr slog.Attr) *Logger {
	newAttrs := make([]slog.Attr, len(l.attrs)+1)
	copy(newAttrs, l.attrs)
	newAttrs[len(l.attrs)] = attr

	return &Logger{
		logger: l.logger,
		writer: l.writer,
		attrs:  newAttrs,
	}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
// Keys and values are provided as alternating arguments.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
// Keys and values are provided as alternating arguments.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
// Keys and values are provided as alternating arguments.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
// Keys and values are provided as alternating arguments.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

// log is the internal logging method that combines persistent attributes
// with per-call arguments.
func (l *Logger) log(level slog.Level, msg string, args ...any) {
	// Combine persistent attrs with per-call args
	allArgs := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	l.logger.Log(context.Background(), level, msg, allArgs...)
}

// Close flushes and closes the log file.
// If the logger was created without a file path (writing to stderr),
// this method is a no-op.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer != nil {
		if err := l.writer.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.writer = nil
	}
	return nil
}

// NopLogger returns a Logger that discards all log output.
// Useful for testing or when logging is disabled.
func NopLogger() *Logger {
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		attrs:  make([]slog.Attr, 0),
	}
}

// ParseLevel converts a string level to the corresponding constant.
// Returns LevelInfo if the level string is not recognized.
func ParseLevel(level string) string {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return LevelDebug
	case LevelInfo:
		return LevelInfo
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
