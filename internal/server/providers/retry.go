package providers

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Observer receives one record per provider operation.
type Observer interface {
	ObserveProvider(provider, op, outcome string, d time.Duration)
}

// Caller runs provider operations. Transient failures are retried up to
// Retries more times with exponential backoff starting at BaseDelay; every
// attempt gets its own Timeout.
type Caller struct {
	Timeout   time.Duration
	Retries   int
	BaseDelay time.Duration
	Observer  Observer
	Logger    logging.Logger
}

// Do runs an idempotent operation, retrying every transient failure.
func (c Caller) Do(ctx context.Context, provider, op string, fn func(ctx context.Context) error) error {
	return c.run(ctx, provider, op, IsTransient, fn)
}

// Submit runs an operation that must not be applied twice, such as an
// upload that creates a new resource. Only a transient status from the
// provider is retried. Transport failures and timeouts are not, the
// request may already have been applied.
func (c Caller) Submit(ctx context.Context, provider, op string, fn func(ctx context.Context) error) error {
	return c.run(ctx, provider, op, isRejected, fn)
}

func (c Caller) run(ctx context.Context, provider, op string, retryable func(error) bool, fn func(ctx context.Context) error) error {
	start := time.Now()
	attempt := 0

	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++

		attemptCtx := ctx
		if c.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.Timeout)
			defer cancel()
		}

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}

		if ctx.Err() == nil && retryable(err) {
			if c.Logger != nil {
				c.Logger.Warn(ctx, "provider call failed, retrying",
					"provider", provider, "op", op, "attempt", attempt, "error", err)
			}
			return retry.RetryableError(err)
		}
		return err
	})

	if c.Observer != nil {
		c.Observer.ObserveProvider(provider, op, Outcome(err), time.Since(start))
	}

	return err
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	return errors.Is(err, common.ErrProviderTransient)
}

// isRejected reports a transient failure the provider answered with a
// status, so the request was not applied.
func isRejected(err error) bool {
	var pe *Error
	return IsTransient(err) && errors.As(err, &pe) && pe.Status != 0
}

func (c Caller) backoff() retry.Backoff {
	base := c.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), retry.NewExponential(base))
}
