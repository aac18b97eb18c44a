package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}

	return records
}

func TestSlogLogger_JSON(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, InfoLevel, false)

	l.Debug("hidden")
	l.Info("channel: opened", "tid", 7, "state", "Opened")
	l.Warn("assembler: fragment timeout")

	records := decodeRecords(t, &buf)
	require.Len(records, 2)
	require.Equal("channel: opened", records[0]["msg"])
	require.Equal("INFO", records[0]["level"])
	require.InDelta(7, records[0]["tid"], 0)
	require.Contains(records[0], "ts")
	require.NotContains(records[0], "time")
	require.Equal("WARN", records[1]["level"])
}

func TestSlogLogger_Level(t *testing.T) {
	t.Setenv("ENV", "")

	tests := []struct {
		description string
		level       LogLevel
		expected    int
	}{
		{"debug", DebugLevel, 4},
		{"info", InfoLevel, 3},
		{"warn", WarnLevel, 2},
		{"error", ErrorLevel, 1},
		{"fatal", FatalLevel, 0},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			var buf bytes.Buffer
			l := NewSlogWithWriter(&buf, InfoLevel, false)
			l.SetLevel(tt.level)
			require.Equal(tt.level, l.Level())

			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")

			require.Len(decodeRecords(t, &buf), tt.expected)
		})
	}
}

func TestSlogLogger_With(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	var buf bytes.Buffer
	parent := NewSlogWithWriter(&buf, InfoLevel, false)
	child := parent.With("channel", "ch-1")

	child.Info("send")

	// the child shares the level of its parent
	parent.SetLevel(ErrorLevel)
	child.Info("dropped")
	require.Equal(ErrorLevel, child.Level())

	records := decodeRecords(t, &buf)
	require.Len(records, 1)
	require.Equal("ch-1", records[0]["channel"])
}

func TestSlogLogger_Fatal(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, FatalLevel, false)
	l.Error("hidden")
	l.Fatal("channel: transport lost", "error", "EOF")

	require.Equal(1, code)
	records := decodeRecords(t, &buf)
	require.Len(records, 1)
	require.Equal("FATAL", records[0]["level"])
	require.Equal("EOF", records[0]["error"])
}

func TestSetLogger(t *testing.T) {
	require := require.New(t)

	orig := GetLogger()
	t.Cleanup(func() { SetLogger(orig) })

	m := NewMockLogger()
	SetLogger(m)
	SetLogger(nil)
	require.Same(m, GetLogger())

	SetLevel(WarnLevel)
	require.Equal(WarnLevel, m.Level())
}

func TestSlogLogger_Console(t *testing.T) {
	t.Setenv("ENV", "development")
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, DebugLevel, false)
	l.Info("modem: state changed", "state", "DISABLED")

	require.Contains(buf.String(), "modem: state changed")
	require.Contains(buf.String(), "DISABLED")
	require.False(json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestParseLevel(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		name     string
		expected LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{" warn ", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"info", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		require.Equal(tt.expected, ParseLevel(tt.name), tt.name)
	}

	require.Equal("warn", LevelName(WarnLevel))
	require.Equal("fatal", LevelName(FatalLevel))
	require.Equal("unknown", LevelName(LogLevel(42)))
}

func TestMockLogger(t *testing.T) {
	require := require.New(t)

	m := NewMockLogger()
	m.Debug("hidden", "tid", 0)
	m.Info("opened", "tid", 1)
	m.With("channel", "cdc-wdm0").Warn("stale response", "tid", 2)

	entries := m.Entries()
	require.Len(entries, 2)
	require.Equal(Entry{Level: InfoLevel, Msg: "opened", KeysAndValues: []any{"tid", 1}}, entries[0])

	warn, ok := m.Find("stale response")
	require.True(ok)
	require.Equal(WarnLevel, warn.Level)
	v, ok := warn.Value("channel")
	require.True(ok)
	require.Equal("cdc-wdm0", v)
	_, ok = warn.Value("missing")
	require.False(ok)

	m.SetLevel(DebugLevel)
	m.Debug("shown")
	require.Len(m.EntriesAt(DebugLevel), 1)
}

func TestMockLogger_Expectations(t *testing.T) {
	m := NewMockLogger()
	m.Test(t)
	m.ExpectLog(InfoLevel, "opened").Once()
	m.ExpectLog(ErrorLevel, "failed").Once()

	m.Info("opened", "tid", 1)
	m.With("tid", 2).Error("failed")

	m.AssertExpectations(t)
}
