package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a backend that could not be reached.
var ErrUnavailable = errors.New("store unavailable")

// RetryableError marks a failure worth another attempt, such as a refused
// connection while a backend starts up.
type RetryableError struct{ Err error }

// Retryable marks err as retryable. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

const connectAttempts = 3

// retryDelay is the wait before the second attempt; it doubles after that.
var retryDelay = time.Second

// RetryWithBackoff runs fn until it succeeds, returns an error not marked
// with Retryable, or has been tried connectAttempts times. Backends use it
// to ping a server when opening a connection.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	err := fn()
	for delay, attempt := retryDelay, 1; err != nil && IsRetryable(err) && attempt < connectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		err = fn()
	}
	return err
}
