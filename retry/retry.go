// Package retry applies a bounded exponential backoff to operations whose
// failures are classified as retryable.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vitwit/x402pay/types"
)

// Policy bounds how often and how fast an operation is retried.
type Policy struct {
	// MaxAttempts counts the first call; 1 disables retrying.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// None performs exactly one attempt.
var None = Policy{MaxAttempts: 1}

// FromConfig converts the configuration block into a Policy.
func FromConfig(c types.RetryConfig) Policy {
	return Policy{
		MaxAttempts:     c.MaxAttempts,
		InitialInterval: c.InitialInterval,
		MaxInterval:     c.MaxInterval,
	}
}

// Classifier decides whether an error is worth another attempt.
type Classifier func(error) bool

// Do runs op until it succeeds, returns an error the classifier rejects, the
// attempts are exhausted, or ctx is done. onRetry, if set, is called before
// each new attempt with the 1-based attempt number that failed. When ctx ends
// between attempts the last error of op is returned, keeping its code.
func (p Policy) Do(ctx context.Context, retryable Classifier, onRetry func(attempt int, err error), op func() error) error {
	if retryable == nil {
		retryable = types.IsRetryable
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(eb, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	var last error
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		last = err
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		if onRetry != nil && attempt < attempts {
			onRetry(attempt, err)
		}
		return err
	}

	err := backoff.Retry(wrapped, b)
	if ctxErr := ctx.Err(); err != nil && last != nil && ctxErr != nil &&
		errors.Is(err, ctxErr) && !errors.Is(last, ctxErr) {
		return gaveUp(last, ctxErr)
	}
	return err
}

func gaveUp(last, ctxErr error) error {
	if code := types.CodeOf(last); code != "" {
		return types.NewError(code, "gave up retrying", fmt.Errorf("%w (%w)", last, ctxErr))
	}
	return fmt.Errorf("gave up retrying: %w (%w)", last, ctxErr)
}
