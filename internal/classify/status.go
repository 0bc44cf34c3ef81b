// Package classify pins the retry-policy decisions left open by the data
// model: which HTTP status codes are retryable, and which transport-level
// failures are retryable versus terminal. Tables are adapted from the
// wider client library's response/status.go and errors package, which
// independently arrived at the same classification.
package classify

import "net/http"

// retryableStatusCodes are HTTP responses worth retrying: the server
// asked us to slow down or had a transient failure.
var retryableStatusCodes = map[int]bool{
	http.StatusRequestTimeout:      true, // 408
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// IsRetryableStatus reports whether a non-2xx status code should be
// retried rather than treated as an immediate terminal failure. This
// pins SPEC_FULL.md's 4xx/5xx Open Question.
func IsRetryableStatus(code int) bool {
	return retryableStatusCodes[code]
}

// IsSuccessStatus reports whether code is in the 2xx range.
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
