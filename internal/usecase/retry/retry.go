package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"assistance-backend/pkg/domainerrors"
)

// Policy bounds retries after an optimistic lock conflict.
type Policy struct {
	MaxRetries uint64
	Interval   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: 5, Interval: 10 * time.Millisecond}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Millisecond
	}
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(interval),
		backoff.WithMaxInterval(50*interval),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
}

// OnStaleWrite runs op, running it again while it fails with
// domainerrors.ErrStaleWrite. Any other error ends the loop unchanged.
// onRetry, when set, is called before each new attempt.
func OnStaleWrite(ctx context.Context, p Policy, onRetry func(error), op func() error) error {
	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil || errors.Is(err, domainerrors.ErrStaleWrite) {
			return err
		}
		return backoff.Permanent(err)
	}, p.backOff(ctx), func(err error, _ time.Duration) {
		if onRetry != nil {
			onRetry(err)
		}
	})
}
