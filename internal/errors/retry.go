package errors

import (
	"context"
	"errors"
	"time"
)

const (
	MaxRetries        = 3
	InitialBackoff    = 100 * time.Millisecond
	MaxBackoff        = 5 * time.Second
	BackoffMultiplier = 2.0
)

// WithRetry runs fn until it succeeds, fails with a non-retryable error, or
// the attempt budget is spent. MaxRetries counts the retries, so fn runs at
// most MaxRetries+1 times. The wait between attempts grows by
// BackoffMultiplier up to MaxBackoff, and a cancelled context cuts both the
// wait and the loop short.
func WithRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	wait := InitialBackoff
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil || !IsRetryable(err) || attempt == MaxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		wait = time.Duration(float64(wait) * BackoffMultiplier)
		if wait > MaxBackoff {
			wait = MaxBackoff
		}
	}
}

// IsRetryable reports whether err is an AppError marked retryable. Plain
// errors never are.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr != nil && appErr.Retryable
}
