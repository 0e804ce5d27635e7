package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2 * time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// Policy controls how many times an operation is attempted and how long to
// sleep between attempts. Delays grow exponentially up to MaxDelay. An error
// wrapped with Transient is retried; an error wrapped with RateLimited first
// honors the server-supplied delay and then consumes a regular attempt.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

// Delay returns the backoff delay before the given attempt (1-based).
// The first attempt runs immediately.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := p.InitialDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}

	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, fails permanently, or MaxAttempts is
// exhausted. Sleeps are context-aware.
func (p Policy) Do(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) {
			return lastErr
		}

		// A rate-limited response carries its own delay, served in full
		// before the standard backoff applies to the next attempt.
		if after := RetryAfterOf(lastErr); after > 0 {
			if err := sleep(ctx, after); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return e.err.Error()
}

func (e *transientError) Unwrap() error {
	return e.err
}

type rateLimitError struct {
	err        error
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string {
	return e.err.Error()
}

func (e *rateLimitError) Unwrap() error {
	return e.err
}

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// RateLimited marks err as retryable with a server-supplied delay.
func RateLimited(err error, retryAfter time.Duration) error {
	if err == nil {
		return nil
	}
	return &rateLimitError{err: err, retryAfter: retryAfter}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *transientError
	var re *rateLimitError
	return errors.As(err, &te) || errors.As(err, &re)
}

// RetryAfterOf returns the server-supplied delay carried by err, or zero.
func RetryAfterOf(err error) time.Duration {
	var re *rateLimitError
	if errors.As(err, &re) {
		return re.retryAfter
	}
	return 0
}
