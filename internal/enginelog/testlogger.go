package enginelog

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

// Entry is one captured log call, recorded by RecordingLogger.
type Entry struct {
	Level   string
	Message string
	Fields  []zapcore.Field
}

// RecordingLogger is a hand-rolled test double, in the style of the
// wider client library's mocklogger package, but recording entries for
// assertions instead of using testify/mock expectations. The engine's
// tests care about "was retry_attempt logged with this reason", not
// call-count verification.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

var _ Logger = (*RecordingLogger)(nil)

func (r *RecordingLogger) record(level, msg string, fields []zapcore.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: fields})
}

func (r *RecordingLogger) Debug(msg string, fields ...zapcore.Field) { r.record("debug", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...zapcore.Field)  { r.record("info", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...zapcore.Field)  { r.record("warn", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...zapcore.Field) { r.record("error", msg, fields) }

// With returns the same recorder; entries from derived loggers still
// land in the parent's log for test assertions.
func (r *RecordingLogger) With(fields ...zapcore.Field) Logger {
	return r
}

// Entries returns a snapshot of everything logged so far.
func (r *RecordingLogger) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// CountByMessage returns how many entries were logged with the given
// message string.
func (r *RecordingLogger) CountByMessage(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Message == msg {
			n++
		}
	}
	return n
}
