// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/go-a2a/a2a"
)

// RetryPolicy controls how [Retry] spaces attempts.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// Multiplier grows the delay between retries.
	Multiplier float64
	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration
	// Jitter is the randomization factor applied to each delay.
	Jitter float64

	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy returns the policy used by [JSONRPCTransport]: 1s initial
// delay doubling up to 30s with 10% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     30 * time.Second,
		Jitter:          0.1,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Retry runs op until it succeeds, returns a non-retryable error, or has been
// attempted 1+p.MaxRetries times.
//
// The attempt number passed to op starts at zero. Non-retryable errors and the
// last attempt's error are returned unchanged. A [a2a.KindRateLimited] error's
// RetryAfter replaces the computed delay. If ctx ends while waiting, ctx's
// error is returned.
func Retry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	b := p.backOff()

	for attempt := 0; ; attempt++ {
		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if !a2a.IsRetryable(err) || attempt >= p.MaxRetries {
			return zero, err
		}

		delay := b.NextBackOff()
		if ra := a2a.RetryAfterOf(err); ra > 0 {
			delay = ra
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
