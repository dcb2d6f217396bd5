package integration

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// maxJitter caps the random component of a backoff delay.
const maxJitter = 2 * time.Second

// RetryPolicy bounds how gateway adapters retry transient failures. It is
// passed explicitly to adapter constructors so call sites can reason about
// retry behavior locally.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number before jitter is added.
	BaseDelay time.Duration
}

// DefaultRetryPolicy is the policy used when configuration supplies none.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 250 * time.Millisecond}

// Do runs op, retrying on transient errors up to MaxAttempts with jittered
// backoff. Rejections (ErrGatewayRejected) are surfaced immediately.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay(attempt - 1)):
			}
		}

		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrGatewayRejected) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// delay computes the backoff before the given retry, bounded so the random
// component never exceeds two seconds.
func (p RetryPolicy) delay(retry int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultRetryPolicy.BaseDelay
	}
	jitter := time.Duration(rand.Int63n(int64(maxJitter)))
	return time.Duration(retry)*base + jitter%maxJitter
}
