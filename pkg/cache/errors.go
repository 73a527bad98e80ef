package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork tags failures to reach a remote backend. RedisCache wraps it
// around connection errors; callers treat such errors as cache misses.
var ErrNetwork = errors.New("cache: backend unreachable")

// RetryableError marks a backend failure worth another attempt.
type RetryableError struct{ Err error }

// Retryable wraps err for [RetryWithBackoff]. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff schedule for remote backends. Redis calls are short, so the whole
// schedule stays well under a second.
var (
	retryAttempts  = 3
	retryBaseDelay = 50 * time.Millisecond
)

// RetryWithBackoff calls fn until it succeeds, returns an error that is not
// retryable, or retryAttempts calls have failed. The wait doubles after each
// failure and is cut short by ctx.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	wait := retryBaseDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}
