package log

import (
	"errors"
	"testing"
)

type entry struct {
	level  string
	msg    string
	fields map[string]any
}

type testLogger struct {
	entries []entry
}

func (l *testLogger) add(level string, f map[string]any, msg string) {
	l.entries = append(l.entries, entry{level: level, msg: msg, fields: f})
}

func (l *testLogger) Info(f map[string]any, msg string)  { l.add("INFO", f, msg) }
func (l *testLogger) Error(f map[string]any, msg string) { l.add("ERROR", f, msg) }
func (l *testLogger) Debug(f map[string]any, msg string) { l.add("DEBUG", f, msg) }
func (l *testLogger) Warn(f map[string]any, msg string)  { l.add("WARN", f, msg) }
func (l *testLogger) Panic(f map[string]any, msg string) { l.add("PANIC", f, msg) }
func (l *testLogger) Fatal(f map[string]any, msg string) { l.add("FATAL", f, msg) }

func TestActualZapLogger(t *testing.T) {
	Debug(map[string]any{
		"key1":  "value1",
		"key2":  42,
		"error": errors.New("boom"),
	}, "test debug")
	Info(nil, "test info")
	Warn(nil, "test warn")
	Error(nil, "test error")
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic, but none occurred")
		}
	}()
	Panic(nil, "test panic")
}

func TestSetLoggerAndGlobalLogging(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)
	tlog := &testLogger{}
	SetLogger(tlog)

	Info(nil, "info msg")
	Error(nil, "error msg")
	Debug(nil, "debug msg")
	Warn(nil, "warn msg")

	expected := []string{"INFO:info msg", "ERROR:error msg", "DEBUG:debug msg", "WARN:warn msg"}
	if len(tlog.entries) != len(expected) {
		t.Fatalf("expected %d log entries, got %d", len(expected), len(tlog.entries))
	}
	for i, want := range expected {
		if got := tlog.entries[i].level + ":" + tlog.entries[i].msg; got != want {
			t.Errorf("expected log[%d] = %q, got %q", i, want, got)
		}
	}
}

func TestWith_MergesFields(t *testing.T) {
	tlog := &testLogger{}
	l := With(tlog, map[string]any{"component": "engine", "page": "a"})
	l.Info(map[string]any{"page": "b", "url": "https://x"}, "hello")

	if len(tlog.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(tlog.entries))
	}
	f := tlog.entries[0].fields
	if f["component"] != "engine" || f["page"] != "b" || f["url"] != "https://x" {
		t.Fatalf("unexpected merged fields: %#v", f)
	}
}

func TestWith_NoFieldsReturnsSameLogger(t *testing.T) {
	tlog := &testLogger{}
	if got := With(tlog, nil); got != Logger(tlog) {
		t.Fatalf("expected the same logger back when no fields are bound")
	}
}

func TestConfigure_ValidLevels(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	if err := Configure("dev", "debug"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Configure("prod", "INFO"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	Sync()
}

func TestConfigure_InvalidLevel(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	if err := Configure("dev", "notalevel"); err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
}

func TestNoopLogger_TestAllLevels(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)
	SetLogger(NewNoopLogger())

	Debug(nil, "debug message")
	Info(nil, "info message")
	Warn(nil, "warn message")
	Error(nil, "error message")
	Panic(nil, "panic message")
	Fatal(nil, "fatal message")
	Sync()
}
