package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAttemptsExhausted wraps the last error once every attempt failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // linear backoff: attempt * Delay

	// Retryable decides whether an error is worth another attempt. Nil
	// retries every error.
	Retryable func(error) bool
	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, err error)
}

// Do runs fn until it succeeds, returns a non-retryable error, or runs out of
// attempts. The returned error wraps the last error from fn.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		delay := p.Delay
		if p.Backoff {
			delay = time.Duration(attempt) * p.Delay
		}
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, lastErr)
}
