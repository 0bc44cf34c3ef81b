// Package retry implements the policy-driven wrapper around a single
// attempt (C2): attempt counting, backoff computation, and
// retryable-vs-terminal classification. It is generic over the
// attempt's return type, so any transport-level operation can be
// retried without a writer-captured-in-struct pattern.
package retry

import (
	"context"
	"time"

	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/enginelog"
)

// Outcome is the classifier's verdict on a failed attempt.
type Outcome int

const (
	Terminal Outcome = iota
	Retryable
)

// Classifier maps an attempt failure to Retryable or Terminal. A nil
// Classifier passed to New falls back to DefaultClassifier.
type Classifier func(err error) Outcome

// Engine executes an attempt operation at most policy.MaxAttempts times.
type Engine struct {
	policy     engineconfig.RetryPolicy
	classifier Classifier
	log        enginelog.Logger
	jitter     bool
	sleep      func(context.Context, time.Duration) error
}

// New builds a retry Engine bound to one policy and classifier. A worker
// constructs exactly one Engine per request (or reuses one across its
// assigned requests, rebinding the policy when a request overrides
// max_retries); the Engine itself holds no per-attempt state.
func New(policy engineconfig.RetryPolicy, classifier Classifier, log enginelog.Logger) *Engine {
	if classifier == nil {
		classifier = DefaultClassifier
	}
	if log == nil {
		log = enginelog.NewNop()
	}
	return &Engine{
		policy:     policy,
		classifier: classifier,
		log:        log,
		jitter:     false,
		sleep:      sleepCtx,
	}
}

// WithJitter returns a copy of the engine with bounded jitter enabled on
// the backoff schedule.
func (e *Engine) WithJitter(enabled bool) *Engine {
	cp := *e
	cp.jitter = enabled
	return &cp
}

// retryAfterer is implemented by attempt errors that carry a server-
// provided wait hint (an HTTP Retry-After header or similar), letting Do
// honor it instead of the computed exponential backoff. The retry engine
// stays HTTP-agnostic: it only knows to ask an error for a hint, not what
// kind of error carries one.
type retryAfterer interface {
	RetryAfter() (wait time.Duration, header string, ok bool)
}

// Result is what Do reports about a (possibly retried) attempt sequence.
type Result[T any] struct {
	Value      T
	RetryCount int // number of additional attempts beyond the first
	Err        error
}

// Do runs attempt up to policy.MaxAttempts times, sleeping between
// retryable failures per the backoff schedule, and returns the terminal
// outcome. requestID is used only for log correlation.
func Do[T any](ctx context.Context, e *Engine, requestID string, attempt func(ctx context.Context, attemptIndex int) (T, error)) Result[T] {
	maxAttempts := e.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	var zero T

	for k := 0; k < maxAttempts; k++ {
		value, err := attempt(ctx, k)
		if err == nil {
			return Result[T]{Value: value, RetryCount: k, Err: nil}
		}

		lastErr = err
		if k+1 >= maxAttempts || e.classifier(err) != Retryable {
			return Result[T]{Value: zero, RetryCount: k, Err: lastErr}
		}

		delay := Delay(e.policy, k, e.jitter)
		if ra, ok := err.(retryAfterer); ok {
			if wait, header, ok2 := ra.RetryAfter(); ok2 {
				delay = wait
				enginelog.RateLimited(e.log, requestID, "", "", header, delay)
			}
		}
		enginelog.RetryAttempt(e.log, requestID, "", "", k+1, err.Error(), delay)

		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return Result[T]{Value: zero, RetryCount: k, Err: sleepErr}
		}
	}

	// unreachable: the loop always returns by the last iteration
	return Result[T]{Value: zero, RetryCount: maxAttempts - 1, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
