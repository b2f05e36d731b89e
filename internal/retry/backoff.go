// Package retry provides exponential backoff for establishing the
// connection behind a session.  It is only ever used before a session
// exists: once a shell is up, a dropped transport ends the session.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that retrying will not help.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  The backoff loop returns the
// inner error immediately without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff implements exponential backoff with optional jitter.
type Backoff struct {
	// InitialDelay is the delay before the first retry (default 1s).
	InitialDelay time.Duration
	// MaxDelay caps the backoff duration (default 30s).
	MaxDelay time.Duration
	// Multiplier increases the delay each attempt (default 2.0).
	Multiplier float64
	// MaxAttempts is the total number of tries including the first.
	// 0 retries until the context is cancelled.
	MaxAttempts int
	// Jitter adds ±25% randomisation.
	Jitter bool
	// OnRetry, when set, is called before each wait with the failed
	// attempt number, its error, and the upcoming delay.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultBackoff returns the configuration used for dialing bind shells.
func DefaultBackoff(attempts int) *Backoff {
	return &Backoff{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  attempts,
		Jitter:       true,
	}
}

// Do executes fn repeatedly until it succeeds, returns a permanent
// error, or the retry budget (attempts / context) is exhausted.
//
// The attempt parameter passed to fn is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	if delay == 0 {
		delay = time.Second
	}
	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	maxDelay := b.MaxDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			if b.MaxAttempts == 1 {
				return err
			}
			return fmt.Errorf("giving up after %d attempts: %w", b.MaxAttempts, err)
		}

		wait := delay
		if b.Jitter {
			wait = addJitter(delay)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	result := float64(d) + delta
	return time.Duration(math.Max(result, float64(time.Millisecond)))
}
