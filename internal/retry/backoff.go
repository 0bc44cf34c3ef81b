package retry

import (
	"math/rand"
	"time"

	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
)

// maxSafeShift bounds the shift amount k. Any k at or past it saturates
// at max_delay_ms. Below it, base_delay_ms is compared against
// max_delay_ms >> k before shifting, and the shift is only performed when
// the result stays within max_delay_ms, so it never overflows int64.
const maxSafeShift = 62

// Delay computes the exponential backoff for attempt index k (zero-based):
// min(base_delay_ms * 2^k, max_delay_ms), clamped before the shift can
// overflow. jitter adds uniform randomness in [0, base_delay_ms) on top,
// still capped at max_delay_ms.
func Delay(policy engineconfig.RetryPolicy, k int, jitter bool) time.Duration {
	base := int64(policy.BaseDelayMs)
	maxMs := int64(policy.MaxDelayMs)
	if base < 0 {
		base = 0
	}
	if maxMs < base {
		maxMs = base
	}

	shift := k
	if shift > maxSafeShift {
		shift = maxSafeShift
	}
	if shift < 0 {
		shift = 0
	}

	delayMs := maxMs
	if shift < maxSafeShift && base <= maxMs>>uint(shift) {
		delayMs = base << uint(shift)
	}

	if jitter && policy.BaseDelayMs > 0 {
		delayMs += rand.Int63n(int64(policy.BaseDelayMs))
		if delayMs > maxMs {
			delayMs = maxMs
		}
	}

	return time.Duration(delayMs) * time.Millisecond
}
