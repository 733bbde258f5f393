package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryOperation(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := RetryOperation(ctx, 3, time.Millisecond, func() error {
			attempts++
			if attempts < 3 {
				return ErrConnection
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		err := RetryOperation(ctx, 2, time.Millisecond, func() error {
			attempts++
			return WrapError("PING", "", context.DeadlineExceeded)
		})
		assert.ErrorIs(t, err, ErrConnection)
		assert.Equal(t, 2, attempts)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		attempts := 0
		cause := errors.New("WRONGTYPE")
		err := RetryOperation(ctx, 5, time.Millisecond, func() error {
			attempts++
			return cause
		})
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, attempts)
	})

	t.Run("zero retries still runs once", func(t *testing.T) {
		attempts := 0
		boom := errors.New("boom")
		err := RetryOperation(ctx, 0, time.Millisecond, func() error {
			attempts++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, attempts)

		err = RetryOperation(ctx, -3, time.Millisecond, func() error { return nil })
		assert.NoError(t, err)
	})

	t.Run("stops when context is done", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := RetryOperation(cctx, 5, time.Hour, func() error {
			return ErrConnection
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
