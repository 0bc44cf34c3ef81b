package classify

import (
	"net/http"
	"strconv"
	"time"
)

// RetryAfter parses the Retry-After header (seconds or HTTP-date form,
// per RFC 7231) and, failing that, the X-RateLimit-Reset convention used
// by many APIs. It returns (0, false) when no usable hint is present,
// letting the caller fall back to the computed exponential backoff.
// Adapted from the wider client library's ratehandler.ParseRateLimitHeaders.
func RetryAfter(h http.Header) (time.Duration, bool) {
	if raw := h.Get("Retry-After"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil {
			if seconds < 0 {
				return 0, false
			}
			return time.Duration(seconds) * time.Second, true
		}
		if when, err := time.Parse(http.TimeFormat, raw); err == nil {
			if d := time.Until(when); d > 0 {
				return d, true
			}
			return 0, true
		}
		return 0, false
	}

	if remaining := h.Get("X-RateLimit-Remaining"); remaining == "0" {
		if resetStr := h.Get("X-RateLimit-Reset"); resetStr != "" {
			if epoch, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
				d := time.Until(time.Unix(epoch, 0))
				if d < 0 {
					d = 0
				}
				return d, true
			}
		}
	}

	return 0, false
}
