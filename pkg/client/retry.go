package client

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a request failure worth repeating: the server could
// not be reached or answered 5xx.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn at most attempts times, doubling delay between calls. Only
// a [RetryableError] is retried. When every attempt fails the last cause is
// returned without its RetryableError wrapper; a cancelled ctx ends the wait
// with ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		var re *RetryableError
		if err == nil || !errors.As(err, &re) {
			return err
		}
		if attempt >= attempts {
			return re.Err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
