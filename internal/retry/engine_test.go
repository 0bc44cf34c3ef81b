package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deploymenttheory/batchhttp/internal/classify"
	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) engineconfig.RetryPolicy {
	return engineconfig.RetryPolicy{MaxAttempts: maxAttempts, BaseDelayMs: 1, MaxDelayMs: 2}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	e := New(fastPolicy(3), nil, nil)
	result := Do(context.Background(), e, "r1", func(ctx context.Context, attempt int) (string, error) {
		return "ok", nil
	})
	assert.Equal(t, "ok", result.Value)
	assert.Equal(t, 0, result.RetryCount)
	assert.NoError(t, result.Err)
}

func TestDoRetriesRetryableFailureThenSucceeds(t *testing.T) {
	e := New(fastPolicy(3), nil, nil)
	calls := 0
	result := Do(context.Background(), e, "r1", func(ctx context.Context, attempt int) (string, error) {
		calls++
		if attempt < 2 {
			return "", classify.NewTransportError(classify.Timeout, errors.New("timed out"))
		}
		return "ok", nil
	})
	assert.Equal(t, "ok", result.Value)
	assert.Equal(t, 2, result.RetryCount)
	assert.Equal(t, 3, calls)
	assert.NoError(t, result.Err)
}

func TestDoStopsAtTerminalFailureImmediately(t *testing.T) {
	e := New(fastPolicy(5), nil, nil)
	calls := 0
	result := Do(context.Background(), e, "r1", func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "", errors.New("invalid method")
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, result.RetryCount)
	assert.Error(t, result.Err)
}

func TestDoExhaustsRetryBudget(t *testing.T) {
	e := New(fastPolicy(3), nil, nil)
	calls := 0
	result := Do(context.Background(), e, "r1", func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "", classify.NewTransportError(classify.ConnectFailed, errors.New("refused"))
	})
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, result.RetryCount)
	assert.Error(t, result.Err)
}

func TestDoZeroMaxRetriesMeansOneAttempt(t *testing.T) {
	e := New(fastPolicy(1), nil, nil)
	calls := 0
	result := Do(context.Background(), e, "r1", func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "", classify.NewTransportError(classify.Timeout, errors.New("timed out"))
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, result.RetryCount)
}

func TestDoRespectsContextCancellationDuringBackoff(t *testing.T) {
	policy := engineconfig.RetryPolicy{MaxAttempts: 5, BaseDelayMs: 500, MaxDelayMs: 1000}
	e := New(policy, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	result := Do(ctx, e, "r1", func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "", classify.NewTransportError(classify.Timeout, errors.New("timed out"))
	})
	require.Error(t, result.Err)
	assert.True(t, calls >= 1)
}

func TestBackoffSaturatesAndNeverOverflows(t *testing.T) {
	policy := engineconfig.RetryPolicy{MaxAttempts: 30, BaseDelayMs: 100, MaxDelayMs: 1000}
	for k := 0; k < 30; k++ {
		d := Delay(policy, k, false)
		assert.True(t, d >= 0)
		assert.True(t, d <= 1000*time.Millisecond)
	}
}

func TestBackoffExponentialBeforeSaturation(t *testing.T) {
	policy := engineconfig.RetryPolicy{MaxAttempts: 10, BaseDelayMs: 100, MaxDelayMs: 1000}
	assert.Equal(t, 100*time.Millisecond, Delay(policy, 0, false))
	assert.Equal(t, 200*time.Millisecond, Delay(policy, 1, false))
	assert.Equal(t, 400*time.Millisecond, Delay(policy, 2, false))
	assert.Equal(t, 1000*time.Millisecond, Delay(policy, 10, false))
}
