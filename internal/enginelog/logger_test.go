package enginelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordingLoggerCapturesRetryAttempt(t *testing.T) {
	log := NewRecordingLogger()
	RetryAttempt(log, "req-1", "GET", "http://example.com", 1, "Timeout", 200*time.Millisecond)

	assert.Equal(t, 1, log.CountByMessage("retry_attempt"))
	entries := log.Entries()
	assert.Equal(t, "warn", entries[0].Level)
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
}
