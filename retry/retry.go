// Package retry implements the primary/alternative execution strategy
// used by the report pipeline: one shot at the primary operation, then a
// bounded, backing-off retry loop over an alternative that receives the
// previous attempt's error so it can adapt.
package retry

import (
	"time"
)

const defaultBaseDelay = 200 * time.Millisecond

// Options controls the alternative retry loop and its observation hooks.
type Options struct {
	// AlternativeMaxRetries is the number of alternative attempts.
	// Zero or negative means 3.
	AlternativeMaxRetries int

	// SleepDuration computes the wait before re-running the alternative
	// after attempt n (1-based) failed. Nil means 200ms doubling per
	// attempt.
	SleepDuration func(attempt int) time.Duration

	// OnFallback fires once when control passes from the primary to the
	// alternative, with the primary's error.
	OnFallback func(err error)

	// OnAlternativeRetry fires before each alternative re-attempt with
	// the failed attempt's error, the computed wait, and the attempt
	// number that failed.
	OnAlternativeRetry func(err error, wait time.Duration, attempt int)
}

func (o Options) maxRetries() int {
	if o.AlternativeMaxRetries <= 0 {
		return 3
	}
	return o.AlternativeMaxRetries
}

func (o Options) sleep(attempt int) time.Duration {
	if o.SleepDuration != nil {
		return o.SleepDuration(attempt)
	}
	return defaultBaseDelay * time.Duration(1<<uint(attempt-1))
}

// ExecuteWithFallback runs primary exactly once. On error the
// alternative takes over: it is attempted up to AlternativeMaxRetries
// times with exponential backoff, each attempt receiving the error of
// the attempt before it (the first receives the primary's error). The
// primary is never retried. If every alternative attempt fails, the
// last attempt's error is returned.
func ExecuteWithFallback[T any](primary func() (T, error), alternative func(lastErr error) (T, error), opts Options) (T, error) {
	value, err := primary()
	if err == nil {
		return value, nil
	}

	if opts.OnFallback != nil {
		opts.OnFallback(err)
	}

	// lastErr threads through the loop: primary's error first, then
	// each failed alternative attempt's own error.
	lastErr := err
	maxRetries := opts.maxRetries()
	for attempt := 1; attempt <= maxRetries; attempt++ {
		value, err = alternative(lastErr)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}
		wait := opts.sleep(attempt)
		if opts.OnAlternativeRetry != nil {
			opts.OnAlternativeRetry(err, wait, attempt)
		}
		time.Sleep(wait)
	}

	var zero T
	return zero, lastErr
}

// Run is ExecuteWithFallback for operations with no return value.
func Run(primary func() error, alternative func(lastErr error) error, opts Options) error {
	_, err := ExecuteWithFallback(
		func() (struct{}, error) { return struct{}{}, primary() },
		func(lastErr error) (struct{}, error) { return struct{}{}, alternative(lastErr) },
		opts,
	)
	return err
}
