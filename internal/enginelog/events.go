package enginelog

import (
	"time"

	"go.uber.org/zap"
)

// These helpers fix the event vocabulary and field names used across the
// dispatcher, worker, and retry engine, mirroring the wider client
// library's LogRequestStart/LogRetryAttempt/LogResponse convention so
// every attempt of a request logs consistently regardless of which
// component emitted it.

// RequestStart logs the first attempt of a request being dispatched to a
// worker's client facade.
func RequestStart(log Logger, requestID, method, url string) {
	log.Info("request_start",
		zap.String("event", "request_start"),
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", url),
	)
}

// RequestEnd logs the terminal outcome of a request, successful or not.
func RequestEnd(log Logger, requestID, method, url string, statusCode int, retryCount int, duration time.Duration) {
	log.Info("request_end",
		zap.String("event", "request_end"),
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status_code", statusCode),
		zap.Int("retry_count", retryCount),
		zap.Duration("duration", duration),
	)
}

// RetryAttempt logs a retry decision, including the computed backoff
// delay before the next attempt.
func RetryAttempt(log Logger, requestID, method, url string, attempt int, reason string, delay time.Duration) {
	log.Warn("retry_attempt",
		zap.String("event", "retry_attempt"),
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("attempt", attempt),
		zap.String("reason", reason),
		zap.Duration("delay", delay),
	)
}

// RateLimited logs a server-signaled rate limit and the wait it produced.
func RateLimited(log Logger, requestID, method, url, retryAfter string, wait time.Duration) {
	log.Warn("rate_limited",
		zap.String("event", "rate_limited"),
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", url),
		zap.String("retry_after_header", retryAfter),
		zap.Duration("wait", wait),
	)
}

// PermitAcquired logs a worker-slot permit acquisition.
func PermitAcquired(log Logger, requestID string, wait time.Duration, inFlight, capacity int) {
	log.Debug("permit_acquired",
		zap.String("event", "permit_acquired"),
		zap.String("request_id", requestID),
		zap.Duration("wait", wait),
		zap.Int("in_flight", inFlight),
		zap.Int("capacity", capacity),
	)
}

// PermitReleased logs a worker-slot permit release.
func PermitReleased(log Logger, requestID string, inFlight, capacity int) {
	log.Debug("permit_released",
		zap.String("event", "permit_released"),
		zap.String("request_id", requestID),
		zap.Int("in_flight", inFlight),
		zap.Int("capacity", capacity),
	)
}
