package resilience

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var errTransient = errors.New("transient failure")

// fastConfig keeps test backoffs in the microsecond range.
func fastConfig(attempts int) Config {
	return Config{
		Attempts:     attempts,
		InitialDelay: time.Microsecond,
		MaxDelay:     time.Millisecond,
	}
}

// TestRetryFirstAttemptSucceeds verifies that a successful call runs exactly
// once with no backoff.
func TestRetryFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := Retry(t.Context(), "ping", fastConfig(3), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("retrying: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestRetryEventuallySucceeds verifies that transient failures are retried
// until the call succeeds.
func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := Retry(t.Context(), "ping", fastConfig(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retrying: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

// TestRetryExhaustsAttempts verifies that the final error reports the
// attempt count and wraps the last failure.
func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(t.Context(), "ping", fastConfig(4), func(ctx context.Context) error {
		calls++
		return errTransient
	})
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("expected wrapped transient error, got %v", err)
	}
	if !strings.Contains(err.Error(), "all 4 attempts failed") {
		t.Errorf("expected attempt count in error, got %q", err)
	}
}

// TestRetryStopsOnCancel verifies that cancellation aborts the loop instead
// of burning the remaining attempts.
func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, "ping", fastConfig(10), func(ctx context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before abort, got %d", calls)
	}
}

// TestBackoffGrowsAndCaps verifies the exponential schedule stays within
// the configured ceiling.
func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := Config{
		Attempts:     10,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
	first := backoff(1, cfg)
	if first < 90*time.Millisecond || first > 110*time.Millisecond {
		t.Errorf("expected first delay near 100ms, got %v", first)
	}
	for attempt := 1; attempt <= 10; attempt++ {
		if d := backoff(attempt, cfg); d > cfg.MaxDelay {
			t.Errorf("attempt %d: delay %v exceeds cap %v", attempt, d, cfg.MaxDelay)
		}
	}
}
