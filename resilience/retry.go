// Package resilience provides the retry and circuit-breaker primitives
// used by swarmmind's LLM adapter: its bounded-attempt backoff wraps
// transient failures with Retry, and an optional CircuitBreaker guards
// its provider calls. The runtime and the swarm coordinator do not use
// this package.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls exponential backoff with jitter.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the computed delay to randomise, e.g. 0.2
	// IsRetryable classifies an error as worth retrying; nil means
	// every error is retryable.
	IsRetryable func(error) bool
}

// DefaultRetryConfig matches the LLM adapter's contract (spec §4.1): up
// to 5 attempts, base 2s, cap 60s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Jitter:      0.2,
	}
}

// ErrMaxAttemptsExceeded is returned (wrapped around the last
// underlying error) when every attempt has been exhausted.
var ErrMaxAttemptsExceeded = errors.New("resilience: max retry attempts exceeded")

// Retry calls fn until it succeeds, the context is cancelled, or
// MaxAttempts is exhausted, sleeping an exponentially growing,
// jittered delay between attempts. The last error is wrapped with
// ErrMaxAttemptsExceeded so callers can distinguish exhaustion from a
// plain failure via errors.Is.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context, attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if cfg.IsRetryable != nil && !cfg.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		delay := backoffDelay(cfg, attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return errors.Join(ErrMaxAttemptsExceeded, lastErr)
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	raw := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
	if raw > float64(cfg.MaxDelay) {
		raw = float64(cfg.MaxDelay)
	}
	if cfg.Jitter > 0 {
		delta := raw * cfg.Jitter
		raw += (rand.Float64()*2 - 1) * delta
		if raw < 0 {
			raw = 0
		}
	}
	return time.Duration(raw)
}
