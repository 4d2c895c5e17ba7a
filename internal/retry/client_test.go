// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/boekwerk/boekwerk-cli/internal/errors"
)

func fastConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       0,
	}
}

func TestDoWithRetry(t *testing.T) {
	t.Run("succeeds first try", func(t *testing.T) {
		client := NewClient(fastConfig(), false)

		calls := 0
		err := client.DoWithRetry(context.Background(), func() error {
			calls++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries retryable errors", func(t *testing.T) {
		client := NewClient(fastConfig(), false)

		calls := 0
		err := client.DoWithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return &errors.APIError{StatusCode: 503}
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		client := NewClient(fastConfig(), false)

		calls := 0
		err := client.DoWithRetry(context.Background(), func() error {
			calls++
			return &errors.ValidationError{Message: "bad input"}
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "permanent error")
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		client := NewClient(fastConfig(), false)

		calls := 0
		err := client.DoWithRetry(context.Background(), func() error {
			calls++
			return &errors.NetworkError{Err: stderrors.New("connection refused")}
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "giving up after 3 attempts")
		assert.Equal(t, 3, calls)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		client := NewClient(fastConfig(), false)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := client.DoWithRetry(ctx, func() error {
			return &errors.NetworkError{Err: stderrors.New("refused")}
		})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("opens after max failures", func(t *testing.T) {
		cb := NewCircuitBreaker(2, time.Minute)
		boom := func() error { return stderrors.New("boom") }

		assert.Error(t, cb.Call(boom))
		assert.Error(t, cb.Call(boom))
		assert.Equal(t, StateOpen, cb.State())

		err := cb.Call(func() error { return nil })
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "circuit breaker is open")
	})

	t.Run("half open after reset timeout then closes", func(t *testing.T) {
		cb := NewCircuitBreaker(1, 5*time.Millisecond)

		assert.Error(t, cb.Call(func() error { return stderrors.New("boom") }))
		assert.Equal(t, StateOpen, cb.State())

		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, StateHalfOpen, cb.State())

		ok := func() error { return nil }
		assert.NoError(t, cb.Call(ok))
		assert.NoError(t, cb.Call(ok))
		assert.NoError(t, cb.Call(ok))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("reset closes the breaker", func(t *testing.T) {
		cb := NewCircuitBreaker(1, time.Minute)
		assert.Error(t, cb.Call(func() error { return stderrors.New("boom") }))
		assert.Equal(t, StateOpen, cb.State())

		cb.Reset()
		assert.Equal(t, StateClosed, cb.State())
		assert.NoError(t, cb.Call(func() error { return nil }))
	})
}
