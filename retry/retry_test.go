package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func noDelay(int) time.Duration { return 0 }

func TestPrimarySuccessSkipsAlternative(t *testing.T) {
	alternativeCalls := 0
	value, err := ExecuteWithFallback(
		func() (string, error) { return "ok", nil },
		func(lastErr error) (string, error) {
			alternativeCalls++
			return "", errors.New("should not run")
		},
		Options{SleepDuration: noDelay},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "ok" {
		t.Errorf("value = %q, want %q", value, "ok")
	}
	if alternativeCalls != 0 {
		t.Errorf("alternative ran %d times, want 0", alternativeCalls)
	}
}

func TestAlternativeSucceedsOnSecondAttempt(t *testing.T) {
	primaryErr := errors.New("primary boom")
	attempt1Err := errors.New("attempt 1 boom")

	var fallbackErrs []error
	var retryHookCalls []int
	var seenLastErrs []error

	attempts := 0
	value, err := ExecuteWithFallback(
		func() (string, error) { return "", primaryErr },
		func(lastErr error) (string, error) {
			attempts++
			seenLastErrs = append(seenLastErrs, lastErr)
			if attempts == 1 {
				return "", attempt1Err
			}
			return "recovered", nil
		},
		Options{
			AlternativeMaxRetries: 3,
			SleepDuration:         noDelay,
			OnFallback:            func(err error) { fallbackErrs = append(fallbackErrs, err) },
			OnAlternativeRetry: func(err error, wait time.Duration, attempt int) {
				retryHookCalls = append(retryHookCalls, attempt)
			},
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "recovered" {
		t.Errorf("value = %q, want %q", value, "recovered")
	}
	if attempts != 2 {
		t.Errorf("alternative attempts = %d, want 2", attempts)
	}
	if len(fallbackErrs) != 1 || !errors.Is(fallbackErrs[0], primaryErr) {
		t.Errorf("OnFallback calls = %v, want exactly one with the primary error", fallbackErrs)
	}
	if len(retryHookCalls) != 1 || retryHookCalls[0] != 1 {
		t.Errorf("OnAlternativeRetry calls = %v, want exactly [1]", retryHookCalls)
	}
	// First attempt sees the primary's error, second sees attempt 1's.
	if len(seenLastErrs) != 2 || !errors.Is(seenLastErrs[0], primaryErr) || !errors.Is(seenLastErrs[1], attempt1Err) {
		t.Errorf("threaded errors = %v, want [primary, attempt1]", seenLastErrs)
	}
}

func TestAllAlternativeAttemptsExhausted(t *testing.T) {
	primaryErr := errors.New("primary boom")
	attempts := 0
	_, err := ExecuteWithFallback(
		func() (int, error) { return 0, primaryErr },
		func(lastErr error) (int, error) {
			attempts++
			return 0, fmt.Errorf("alternative attempt %d failed", attempts)
		},
		Options{AlternativeMaxRetries: 3, SleepDuration: noDelay},
	)
	if attempts != 3 {
		t.Errorf("alternative attempts = %d, want 3", attempts)
	}
	if err == nil || err.Error() != "alternative attempt 3 failed" {
		t.Errorf("err = %v, want the 3rd attempt's error", err)
	}
}

func TestPrimaryNeverRetried(t *testing.T) {
	primaryCalls := 0
	_, _ = ExecuteWithFallback(
		func() (int, error) {
			primaryCalls++
			return 0, errors.New("boom")
		},
		func(lastErr error) (int, error) { return 0, errors.New("still boom") },
		Options{AlternativeMaxRetries: 3, SleepDuration: noDelay},
	)
	if primaryCalls != 1 {
		t.Errorf("primary ran %d times, want 1", primaryCalls)
	}
}

func TestDefaultBackoffDoubles(t *testing.T) {
	var opts Options
	want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}
	for i, w := range want {
		if got := opts.sleep(i + 1); got != w {
			t.Errorf("sleep(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestRunNoValue(t *testing.T) {
	attempts := 0
	err := Run(
		func() error { return errors.New("boom") },
		func(lastErr error) error {
			attempts++
			if attempts < 2 {
				return errors.New("not yet")
			}
			return nil
		},
		Options{AlternativeMaxRetries: 3, SleepDuration: noDelay},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("alternative attempts = %d, want 2", attempts)
	}
}
