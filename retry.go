package tocloud

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how many times and how often an upload is tried again
// after a transient failure.
type RetryPolicy struct {
	// MaxAttempts is the number of rounds over the services (first-available)
	// or attempts on each service (fan-out). Values lower than one mean a
	// single attempt.
	MaxAttempts int

	// InitialInterval is the wait before the first retry.
	InitialInterval time.Duration

	// MaxInterval caps the wait between two attempts.
	MaxInterval time.Duration

	// Multiplier grows the interval after each retry.
	Multiplier float64
}

func (r RetryPolicy) attempts() int {
	if r.MaxAttempts < 1 {
		return 1
	}
	return r.MaxAttempts
}

// backOff builds the exponential intervals of a sequence of attempts. The
// number of attempts is controlled by the caller, so the elapsed time never
// stops the sequence.
func (r RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0

	// zero interval retries right away
	b.InitialInterval = r.InitialInterval
	if b.InitialInterval < 0 {
		b.InitialInterval = 0
	}
	if r.MaxInterval > 0 {
		b.MaxInterval = r.MaxInterval
	}
	if r.Multiplier >= 1 {
		b.Multiplier = r.Multiplier
	}

	b.Reset()
	return backoff.WithContext(b, ctx)
}

// wait sleeps for the next interval of the back off. It returns early with
// the context error when the context is done.
func wait(b backoff.BackOffContext) error {
	ctx := b.Context()

	interval := b.NextBackOff()
	if interval == backoff.Stop {
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.Canceled
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
