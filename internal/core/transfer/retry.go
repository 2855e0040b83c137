package transfer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy bounds the automatic resume of transient transfer
// failures. Waits grow exponentially from InitialWait up to MaxWait
// with a jitter factor, so parallel workers do not retry in lockstep.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	Jitter      float64
}

// DefaultRetryPolicy returns the bounded-backoff defaults
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}

// wait returns the backoff before the given retry (first retry is 1)
func (p RetryPolicy) wait(retry int) time.Duration {
	wait := float64(p.InitialWait) * math.Pow(p.Multiplier, float64(retry-1))
	if wait > float64(p.MaxWait) {
		wait = float64(p.MaxWait)
	}
	if p.Jitter > 0 {
		wait += wait * p.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(wait)
}

// sleep waits out the backoff or returns early on cancellation
func (p RetryPolicy) sleep(ctx context.Context, retry int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.wait(retry)):
		return nil
	}
}

// transientError marks a failure eligible for automatic resume
type transientError struct {
	err error
}

func (e transientError) Error() string {
	return e.err.Error()
}

func (e transientError) Unwrap() error {
	return e.err
}

// transient wraps an error as retryable
func transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// isTransient reports whether a failure should be retried
func isTransient(err error) bool {
	var te transientError
	return errors.As(err, &te)
}
