package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("connection refused")

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, RetryInterval: time.Millisecond, BackoffFactor: 2}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int
	policy := fastPolicy(3)
	policy.OnRetry = func(attempt int, err error) {
		retried = append(retried, attempt)
		assert.ErrorIs(t, err, errTransient)
	}

	err := Retry(context.Background(), policy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(2), func(ctx context.Context) error {
		calls++
		return errTransient
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "max retries (2) exceeded")
}

func TestRetry_NoRetries(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(0), func(ctx context.Context) error {
		calls++
		return errTransient
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, errTransient, err)
}

func TestRetry_Permanent(t *testing.T) {
	errBad := errors.New("bad row")
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return Permanent(errBad)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, errBad, err)
	assert.Nil(t, Permanent(nil))
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxRetries: 5, RetryInterval: time.Hour}
	policy.OnRetry = func(int, error) { cancel() }

	err := Retry(ctx, policy, func(ctx context.Context) error {
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errTransient)
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	assert.Equal(t, 2, policy.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, policy.RetryInterval)
	assert.Equal(t, 2.0, policy.BackoffFactor)
}
