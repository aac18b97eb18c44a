package logger

import (
	"strings"
	"sync/atomic"
)

type loggerHolder struct{ Logger }

var defLogger atomic.Pointer[loggerHolder]

func init() {
	defLogger.Store(&loggerHolder{NewSlog(InfoLevel, false)})
}

// GetLogger returns the package default logger. Components capture it when
// they are created, so SetLogger only affects components created afterwards.
func GetLogger() Logger {
	return defLogger.Load().Logger
}

// SetLogger replaces the package default logger. A nil logger is ignored.
func SetLogger(l Logger) {
	if l != nil {
		defLogger.Store(&loggerHolder{l})
	}
}

// SetLevel sets the level of the package default logger.
func SetLevel(level Level) {
	GetLogger().SetLevel(level)
}

var levelNames = []struct {
	level Level
	name  string
}{
	{DebugLevel, "debug"},
	{InfoLevel, "info"},
	{WarnLevel, "warn"},
	{ErrorLevel, "error"},
	{FatalLevel, "fatal"},
}

// ParseLevel converts a case-insensitive level name to a LogLevel.
// "warning" is accepted for WarnLevel; unknown names map to InfoLevel.
func ParseLevel(name string) LogLevel {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return WarnLevel
	}

	for _, ln := range levelNames {
		if ln.name == name {
			return ln.level
		}
	}

	return InfoLevel
}

// LevelName returns the lower-case name of level.
func LevelName(level LogLevel) string {
	for _, ln := range levelNames {
		if ln.level == level {
			return ln.name
		}
	}

	return "unknown"
}
