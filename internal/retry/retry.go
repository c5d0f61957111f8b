// Package retry implements bounded retry with exponential backoff for
// expensive upstream calls. The policy is kept orthogonal to business logic:
// callers wrap a single function and decide retryability via a predicate.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded retry schedule. The delay starts at BaseDelay
// and doubles after every failed attempt, capped at MaxDelay. When Retryable
// returns false for an error, the policy gives up immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries every error.
	Retryable func(error) bool
}

// Do runs fn under the policy. It returns nil as soon as fn succeeds, the
// last error once attempts are exhausted, or ctx.Err() if the context is
// cancelled while waiting between attempts. The retry budget is finite:
// exhausting it means giving up, never hanging.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return fmt.Errorf("retry: non-retryable: %w", err)
		}
		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("retry: failed after %d attempts: %w", p.MaxAttempts, lastErr)
}
