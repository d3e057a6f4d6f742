package logging

import (
	"fmt"
	"sync"
)

// Entry is a single message captured by RecordingLogger.
type Entry struct {
	Level   string
	Message string
}

// RecordingLogger keeps every message in memory.
// Used by tests and by callers that report diagnostics after the fact.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) Verbose(format string, args ...interface{}) { l.add("VERBOSE", format, args) }
func (l *RecordingLogger) Info(format string, args ...interface{})    { l.add("INFO", format, args) }
func (l *RecordingLogger) Warn(format string, args ...interface{})    { l.add("WARN", format, args) }
func (l *RecordingLogger) Error(format string, args ...interface{})   { l.add("ERROR", format, args) }

func (l *RecordingLogger) add(level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Entries returns a copy of all captured entries in order.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Messages returns the messages logged at level.
func (l *RecordingLogger) Messages(level string) []string {
	var out []string
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
