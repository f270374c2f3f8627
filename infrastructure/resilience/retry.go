package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy retries an operation with exponential backoff and full
// jitter. Only idempotent operations should be retried with it; the
// pipeline's upsert/delete are designed idempotent so they qualify.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt)
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	// full jitter
	return time.Duration(rand.Int63n(int64(delay) + 1))
}

// Guard couples a breaker with a retry policy around one external
// dependency. Each attempt is accounted to the breaker individually; once
// the breaker opens, remaining attempts fail fast.
type Guard struct {
	Breaker *Breaker
	Retry   RetryPolicy
}

// Execute runs op under the guard. Retryable errors are retried per the
// policy; a nil error from retryable marks every error retryable.
func (g *Guard) Execute(ctx context.Context, op func(ctx context.Context) error, retryable func(error) bool) error {
	var lastErr error
	for attempt := 0; attempt < g.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(g.Retry.backoff(attempt - 1)):
			}
		}

		if err := g.Breaker.Allow(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			g.Breaker.RecordSuccess()
			return nil
		}
		if retryable != nil && !retryable(err) {
			// A non-retryable error means the dependency answered; the
			// caller's input was bad, not the dependency. Counting it as
			// a failure would let bad input trip the breaker.
			g.Breaker.RecordSuccess()
			return err
		}
		g.Breaker.RecordFailure()
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}
