package audits

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds repeated attempts with exponential backoff and an
// independent timeout per attempt.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
}

// Do runs fn up to MaxAttempts times. Each attempt gets its own deadline;
// failed attempts sleep an exponentially growing delay before the next one.
// The last attempt's error is returned after exhaustion. Cancellation of the
// parent context stops retrying immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		}
		err := fn(attemptCtx, attempt)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(p.backoffDelay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := base << uint(attempt-1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
