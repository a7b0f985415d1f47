package audits

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryDoStopsOnSuccess(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryDoExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return fmt.Errorf("attempt %d failed", attempt)
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if err.Error() != "attempt 3 failed" {
		t.Fatalf("expected last attempt error, got %v", err)
	}
}

func TestRetryDoAttemptTimeout(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, AttemptTimeout: 10 * time.Millisecond}
	var deadlines int
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		if _, ok := ctx.Deadline(); ok {
			deadlines++
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if deadlines != 2 {
		t.Fatalf("expected per-attempt deadlines on both attempts, got %d", deadlines)
	}
}

func TestRetryDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}
	calls := 0
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation stopped retries, got %d", calls)
	}
}

func TestBackoffDelayDoubling(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, MaxDelay: 8 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, expected := range want {
		if got := policy.backoffDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: expected %s, got %s", i+1, expected, got)
		}
	}
}
