package stomp

import (
	"log/slog"
	"sync"
	"testing"
)

func TestLogger_Interface(t *testing.T) {
	// Verify that *slog.Logger implements our Logger interface
	var _ Logger = slog.Default()
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultLogger()

	if logger != slog.Default() {
		t.Error("defaultLogger did not return slog.Default()")
	}
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

// mockLogger records entries; it is shared between a Conn's loops.
type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *mockLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *mockLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *mockLogger) Info(msg string, args ...any) { l.record("info", msg, args) }
func (l *mockLogger) Warn(msg string, args ...any) { l.record("warn", msg, args) }
func (l *mockLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func (l *mockLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func argValue(args []any, key string) (any, bool) {
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1], true
		}
	}
	return nil, false
}

func TestWithFields(t *testing.T) {
	mock := &mockLogger{}
	logger := withFields(mock, "conn_id", "abc")

	logger.Info("hello", "key", "value")
	logger.Warn("warn")
	logger.Error("error")
	logger.Debug("debug")

	e, ok := mock.find("hello")
	if !ok {
		t.Fatal("entry not recorded")
	}
	if e.level != "info" {
		t.Errorf("level = %s, want info", e.level)
	}
	if len(e.args) != 4 || e.args[0] != "conn_id" || e.args[1] != "abc" || e.args[2] != "key" {
		t.Errorf("args = %v, want fixed fields first", e.args)
	}
	if len(mock.entries) != 4 {
		t.Errorf("recorded %d entries, want 4", len(mock.entries))
	}
}

func TestWithFields_Nested(t *testing.T) {
	mock := &mockLogger{}
	parent := withFields(mock, "a", 1)
	first := withFields(parent, "b", 2)
	second := withFields(parent, "c", 3)

	first.Info("first")
	second.Info("second")

	e, _ := mock.find("first")
	if v, ok := argValue(e.args, "b"); !ok || v != 2 {
		t.Errorf("first args = %v", e.args)
	}
	if _, ok := argValue(e.args, "c"); ok {
		t.Errorf("sibling fields leaked into %v", e.args)
	}

	e, _ = mock.find("second")
	if v, ok := argValue(e.args, "a"); !ok || v != 1 {
		t.Errorf("second args = %v", e.args)
	}
}
