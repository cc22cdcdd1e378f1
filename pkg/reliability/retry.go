package reliability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryPolicy 重试策略
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries    int
	RetryInterval time.Duration
	BackoffFactor float64
	// OnRetry runs after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy 默认策略：重试2次，间隔200ms，指数退避
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    2,
		RetryInterval: 200 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that Retry returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry 使用重试执行操作. It stops early on success, on a Permanent error or
// when ctx is done; the wait between attempts grows by BackoffFactor.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	var lastErr error
	interval := policy.RetryInterval

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		// 如果还有重试机会，等待
		if attempt == policy.MaxRetries {
			break
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt+1, errors.Join(lastErr, ctx.Err()))
		case <-timer.C:
		}
		if policy.BackoffFactor > 1 {
			interval = time.Duration(float64(interval) * policy.BackoffFactor)
		}
	}

	if policy.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries (%d) exceeded, last error: %w", policy.MaxRetries, lastErr)
}
