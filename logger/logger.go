// Package logger provides the logging abstraction used across go-mbim.
//
// Every component (channel, sequence engine, modem sequencers) takes a Logger
// through its configuration, so any logging framework can be plugged in by
// implementing the interface. The package ships a log/slog backed
// implementation that writes JSON records, or colorized console records when
// the ENV environment variable is "development".
//
// Log Levels:
//
//   - DebugLevel: per-transaction wire details, disabled by default.
//   - InfoLevel: sequence and state-machine milestones.
//   - WarnLevel: recoverable protocol anomalies such as stale responses.
//   - ErrorLevel: failed transactions and transport faults.
//   - FatalLevel: unrecoverable errors, the process exits after logging.
package logger

// LogLevel indicates the logging severity level.
type LogLevel = int8

// Level is an alias of LogLevel.
type Level = LogLevel

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel LogLevel = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel
	// ErrorLevel logs are high-priority.
	ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel
)

// Logger defines a common interface for logging with key/value pairs.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)
	// Fatal logs a message at FatalLevel and then calls os.Exit(1).
	Fatal(msg string, keysAndValues ...any)
	// With creates a child logger and adds structured context to it.
	// Key-values added to the child don't affect the parent, and vice versa.
	With(keyValues ...any) Logger
	// Level returns the minimum enabled level for this logger.
	Level() LogLevel
	// SetLevel sets the minimum enabled level for this logger.
	SetLevel(level LogLevel)
}
