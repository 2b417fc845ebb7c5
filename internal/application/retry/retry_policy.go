// Package retry implements the bounded-attempt retry loop the outbound
// provider client uses around each HTTP call: fixed attempt budget,
// configurable backoff, and an escape hatch for errors that should never
// be retried (bad credentials, malformed requests).
package retry

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/campaignflow/engine/internal/domain"
)

// BackoffStrategy selects how the delay between attempts grows.
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy bounds how a call is retried: attempt budget, delay curve,
// and an optional allowlist of retryable failure patterns.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// 0 or 1 disables retries.
	MaxAttempts int

	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffStrategy BackoffStrategy

	// RetryableErrors, if non-empty, restricts retries to errors whose
	// message contains one of these substrings. Empty means every error
	// is a candidate, subject to IsRetryableError.
	RetryableErrors []string

	// OnRetry, if set, runs before each retry delay with the attempt
	// number that just failed and the error that triggered the retry.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy is a general-purpose policy: three attempts,
// exponential backoff capped at 30s. The provider HTTP client does not use
// it; it builds its own two-attempt constant-backoff policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     3,
		InitialDelay:    time.Second,
		MaxDelay:        30 * time.Second,
		BackoffStrategy: BackoffExponential,
	}
}

// NoRetryPolicy runs the call exactly once.
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 1}
}

// ShouldRetry reports whether err warrants another attempt. A configured
// RetryableErrors allowlist takes precedence; otherwise it defers to
// IsRetryableError's context/Temporary/Timeout heuristics.
func (rp *RetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if len(rp.RetryableErrors) == 0 {
		return IsRetryableError(err)
	}

	msg := err.Error()
	for _, pattern := range rp.RetryableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// GetDelay returns the wait before the given attempt number, capped at
// MaxDelay. attempt is 1-indexed; attempt <= 0 returns no delay.
func (rp *RetryPolicy) GetDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	var delay time.Duration
	switch rp.BackoffStrategy {
	case BackoffConstant:
		delay = rp.InitialDelay
	case BackoffLinear:
		delay = rp.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(rp.InitialDelay) * math.Pow(2, float64(attempt-1)))
	default:
		delay = rp.InitialDelay
	}

	if delay > rp.MaxDelay {
		delay = rp.MaxDelay
	}
	return delay
}

// Execute runs fn, retrying on retryable failures up to MaxAttempts times
// with the policy's backoff between attempts. It returns nil on the first
// success, ctx.Err() wrapped if ctx is done before or during a wait, or a
// domain.Transient error wrapping the last failure once attempts run out.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	attempts := rp.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Transient("retry aborted before attempt", err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt >= attempts || !rp.ShouldRetry(lastErr) {
			break
		}

		if rp.OnRetry != nil {
			rp.OnRetry(attempt, lastErr)
		}

		if delay := rp.GetDelay(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return domain.Transient("retry aborted during backoff", ctx.Err())
			case <-timer.C:
			}
		}
	}

	return domain.Transient("retry attempts exhausted", lastErr)
}

// IsRetryableError classifies an error the policy has no explicit pattern
// for. Context cancellation and deadline errors are never retryable;
// anything implementing Temporary() or Timeout() defers to that signal;
// everything else defaults to retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) {
		return temporary.Temporary()
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return timeout.Timeout()
	}

	return true
}
