package retry

import (
	"errors"

	"github.com/deploymenttheory/batchhttp/internal/classify"
)

// DefaultClassifier implements the default transport classification: Timeout,
// ConnectFailed, TlsHandshakeFailed, WriteFailed, and ReadFailed are
// retryable; everything else (including HTTP-status-derived failures,
// which the worker wraps separately) is terminal.
func DefaultClassifier(err error) Outcome {
	var transportErr *classify.TransportError
	if errors.As(err, &transportErr) {
		if classify.IsRetryableTransportFailure(transportErr.Kind) {
			return Retryable
		}
		return Terminal
	}
	return Terminal
}
