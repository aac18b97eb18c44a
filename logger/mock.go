package logger

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"
)

// Entry is one log call recorded by MockLogger.
type Entry struct {
	Level         LogLevel
	Msg           string
	KeysAndValues []any
}

// Value returns the value logged for key.
func (e Entry) Value(key string) (any, bool) {
	for i := 0; i+1 < len(e.KeysAndValues); i += 2 {
		if k, ok := e.KeysAndValues[i].(string); ok && k == key {
			return e.KeysAndValues[i+1], true
		}
	}

	return nil, false
}

// MockLogger is a Logger for tests.
//
// Every call at or above the mock's level is recorded and can be inspected
// with Entries. Calls are also matched against testify expectations once one
// has been set with ExpectLog; without expectations the mock accepts anything.
// Child loggers created by With share the recorder and the expectations of
// their parent and prepend their fields.
type MockLogger struct {
	mock.Mock

	root   *MockLogger
	shared *mockShared
	fields []any
}

type mockShared struct {
	level  atomic.Int32
	strict atomic.Bool

	mu      sync.Mutex
	entries []Entry
}

var _ Logger = (*MockLogger)(nil)

// NewMockLogger returns a MockLogger at InfoLevel.
func NewMockLogger() *MockLogger {
	m := &MockLogger{shared: &mockShared{}}
	m.root = m
	m.shared.level.Store(int32(InfoLevel))

	return m
}

// ExpectLog sets an expectation for a call at level with msg and any fields.
// After the first expectation, unexpected calls fail the test.
func (m *MockLogger) ExpectLog(level LogLevel, msg string) *mock.Call {
	m.shared.strict.Store(true)
	return m.root.On(methodName(level), msg, mock.Anything)
}

// Entries returns a copy of the recorded log calls.
func (m *MockLogger) Entries() []Entry {
	m.shared.mu.Lock()
	defer m.shared.mu.Unlock()

	return slices.Clone(m.shared.entries)
}

// EntriesAt returns the recorded log calls at level.
func (m *MockLogger) EntriesAt(level LogLevel) []Entry {
	var out []Entry
	for _, e := range m.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}

	return out
}

// Find returns the first recorded call with msg.
func (m *MockLogger) Find(msg string) (Entry, bool) {
	for _, e := range m.Entries() {
		if e.Msg == msg {
			return e, true
		}
	}

	return Entry{}, false
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.log(DebugLevel, msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.log(InfoLevel, msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.log(WarnLevel, msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.log(ErrorLevel, msg, keysAndValues)
}

// Fatal records the call like any other level; it never exits.
func (m *MockLogger) Fatal(msg string, keysAndValues ...any) {
	m.log(FatalLevel, msg, keysAndValues)
}

func (m *MockLogger) SetLevel(level LogLevel) {
	m.shared.level.Store(int32(level))
}

func (m *MockLogger) Level() LogLevel {
	return LogLevel(m.shared.level.Load())
}

func (m *MockLogger) With(keyValues ...any) Logger {
	return &MockLogger{
		root:   m.root,
		shared: m.shared,
		fields: append(slices.Clone(m.fields), keyValues...),
	}
}

func (m *MockLogger) log(level LogLevel, msg string, keysAndValues []any) {
	if level < m.Level() {
		return
	}

	kv := keysAndValues
	if len(m.fields) > 0 {
		kv = append(slices.Clone(m.fields), keysAndValues...)
	}

	m.shared.mu.Lock()
	m.shared.entries = append(m.shared.entries, Entry{Level: level, Msg: msg, KeysAndValues: kv})
	m.shared.mu.Unlock()

	if m.shared.strict.Load() {
		m.root.MethodCalled(methodName(level), msg, kv)
	}
}

func methodName(level LogLevel) string {
	switch level {
	case DebugLevel:
		return "Debug"
	case InfoLevel:
		return "Info"
	case WarnLevel:
		return "Warn"
	case ErrorLevel:
		return "Error"
	default:
		return "Fatal"
	}
}
