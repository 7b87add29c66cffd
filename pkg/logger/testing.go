package logger

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// Entry is a message captured by a RecordingLogger
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// RecordingLogger keeps every message in memory so tests can assert on what
// was logged. Child loggers created with WithField share the same sink.
type RecordingLogger struct {
	T *testing.T

	mu      *sync.Mutex
	entries *[]Entry
	fields  map[string]interface{}
}

// NewTestLogger creates a recording logger that also forwards to t.Logf when t is set
func NewTestLogger(t *testing.T) *RecordingLogger {
	return &RecordingLogger{
		T:       t,
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
		fields:  map[string]interface{}{},
	}
}

// NewMockLogger creates a simple logger for use in tests
// It can be called with or without a testing.T parameter
func NewMockLogger(t ...*testing.T) Logger {
	if len(t) > 0 {
		return NewTestLogger(t[0])
	}
	return NewTestLogger(nil)
}

func (l *RecordingLogger) record(level, msg string) {
	l.mu.Lock()
	*l.entries = append(*l.entries, Entry{Level: level, Message: msg, Fields: l.fields})
	l.mu.Unlock()

	if l.T != nil {
		l.T.Logf("[%s] %s %v", strings.ToUpper(level), msg, l.fields)
	}
}

func (l *RecordingLogger) Debug(msg string) { l.record("debug", msg) }
func (l *RecordingLogger) Info(msg string)  { l.record("info", msg) }
func (l *RecordingLogger) Warn(msg string)  { l.record("warn", msg) }
func (l *RecordingLogger) Error(msg string) { l.record("error", msg) }
func (l *RecordingLogger) Fatal(msg string) { l.record("fatal", msg) }

func (l *RecordingLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *RecordingLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &RecordingLogger{T: l.T, mu: l.mu, entries: l.entries, fields: merged}
}

// Entries returns a copy of everything logged so far
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(*l.entries))
	copy(out, *l.entries)
	return out
}

// Count returns how many messages were logged at level
func (l *RecordingLogger) Count(level string) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// String renders the captured entries, handy in assertion messages
func (l *RecordingLogger) String() string {
	var b strings.Builder
	for _, e := range l.Entries() {
		fmt.Fprintf(&b, "%s: %s %v\n", e.Level, e.Message, e.Fields)
	}
	return b.String()
}
