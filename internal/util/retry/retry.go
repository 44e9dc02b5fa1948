// Package retry provides bounded retry and polling combinators.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// TimeoutError is returned when a bounded retry or poll exhausts its
// attempt budget without the operation becoming ready.
type TimeoutError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%s: not ready after %d attempts: %v", e.Op, e.Attempts, e.Last)
	}
	return fmt.Sprintf("%s: not ready after %d attempts", e.Op, e.Attempts)
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// WithBackoff executes the operation with exponential backoff retry.
// It retries the operation up to MaxAttempts times, with exponentially
// increasing delays between attempts. Context cancellation is respected
// throughout. Errors wrapped with Fatal() are not retried.
func WithBackoff(ctx context.Context, op string, operation func() error, opts ...Option) error {
	cfg := &Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("%s: fatal error (not retrying): %w", op, err)
		}

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: cancelled after %d attempts: %w", op, attempt, ctx.Err())
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			}
		}
	}

	return &TimeoutError{Op: op, Attempts: cfg.MaxAttempts, Last: lastErr}
}

// Poll runs ready at a fixed interval until it reports true, the attempt
// budget is exhausted, or the context is cancelled. A ready error counts as
// "not ready" and is retained as the cause of an eventual TimeoutError.
// The first check runs immediately.
func Poll(ctx context.Context, op string, attempts int, interval time.Duration, ready func() (bool, error)) error {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		ok, err := ready()
		if err == nil && ok {
			return nil
		}
		lastErr = err

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: cancelled after %d attempts: %w", op, attempt, ctx.Err())
			case <-time.After(interval):
			}
		}
	}

	return &TimeoutError{Op: op, Attempts: attempts, Last: lastErr}
}

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithInitialDelay sets the initial delay between attempts.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		c.Multiplier = m
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
// Operations that encounter fatal errors will not be retried.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
