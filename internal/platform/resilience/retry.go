package resilience

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

var errPermanent = errors.New("permanent failure")

// Permanent marks err so Retry stops immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, errPermanent)
}

func IsPermanent(err error) bool {
	return errors.Is(err, errPermanent)
}

// RetryPolicy retries with a linear backoff: attempt n waits n*Backoff.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// Retry calls fn until it succeeds, returns a Permanent error, the attempts are
// exhausted, or ctx is done. The last error is returned.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(policy.Attempts, 1)

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 && policy.Backoff > 0 {
			timer := time.NewTimer(time.Duration(attempt) * policy.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.WithSecondaryError(ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil || IsPermanent(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
