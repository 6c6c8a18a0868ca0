package meshwire

import (
	"sync"
	"testing"
)

func TestNopLogger_Implements_Logger(t *testing.T) {
	var _ Logger = NopLogger{}
}

func TestNopLogger_Methods_DoNotPanic(t *testing.T) {
	logger := NopLogger{}

	// Should not panic with any arguments
	logger.Debug("message")
	logger.Debug("message", "key", "value")
	logger.Debug("message", "key1", "value1", "key2", "value2")
	logger.Info("message")
	logger.Info("message", "key", 123)
	logger.Warn("message")
	logger.Warn("message", "key", struct{}{})
	logger.Error("message")
	logger.Error("message", "key", nil)
}

// TestLogger is a test logger that records log calls.
type TestLogger struct {
	mu    sync.Mutex
	Calls []LogCall
}

type LogCall struct {
	Level         string
	Message       string
	KeysAndValues []any
}

func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.record("debug", msg, keysAndValues)
}

func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.record("info", msg, keysAndValues)
}

func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.record("warn", msg, keysAndValues)
}

func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.record("error", msg, keysAndValues)
}

func (l *TestLogger) record(level, msg string, keysAndValues []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = append(l.Calls, LogCall{
		Level:         level,
		Message:       msg,
		KeysAndValues: keysAndValues,
	})
}

// CallsAt returns a copy of the recorded calls at the given level.
func (l *TestLogger) CallsAt(level string) []LogCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogCall
	for _, c := range l.Calls {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

// HasMessage reports whether any call at the level logged the message.
func (l *TestLogger) HasMessage(level, msg string) bool {
	for _, c := range l.CallsAt(level) {
		if c.Message == msg {
			return true
		}
	}
	return false
}

func TestTestLogger_RecordsCalls(t *testing.T) {
	logger := &TestLogger{}

	logger.Debug("debug message", "key1", "value1")
	logger.Info("info message", "key2", 123)
	logger.Warn("warn message")
	logger.Error("error message", "err", "some error")

	if len(logger.Calls) != 4 {
		t.Errorf("expected 4 calls, got %d", len(logger.Calls))
	}

	if logger.Calls[0].Level != "debug" || logger.Calls[0].Message != "debug message" {
		t.Errorf("unexpected first call: %+v", logger.Calls[0])
	}
	if len(logger.Calls[0].KeysAndValues) != 2 {
		t.Errorf("expected 2 key-value items, got %d", len(logger.Calls[0].KeysAndValues))
	}

	if !logger.HasMessage("warn", "warn message") {
		t.Error("HasMessage should find the warn call")
	}
	if logger.HasMessage("error", "warn message") {
		t.Error("HasMessage should not match across levels")
	}
}

func TestTestLogger_ConcurrentUse(t *testing.T) {
	logger := &TestLogger{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				logger.Info("concurrent", "iteration", j)
			}
		}()
	}
	wg.Wait()

	if len(logger.CallsAt("info")) != 1000 {
		t.Errorf("expected 1000 info calls, got %d", len(logger.CallsAt("info")))
	}
}
