package redis

import (
	"context"
	"errors"
	"time"
)

// RetryOperation runs fn until it succeeds, maxRetries attempts are used up,
// or ctx is done. fn always runs at least once. The backoff doubles after each failure. Errors that are not
// transport failures are returned immediately.
//
// The client never retries on its own; wrap calls with RetryOperation where
// retrying is safe for the caller.
func RetryOperation(ctx context.Context, maxRetries int, initialBackoff time.Duration, fn func() error) error {
	var err error
	backoff := initialBackoff
	if maxRetries < 1 {
		maxRetries = 1
	}

	for i := 0; i < maxRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errors.Is(err, ErrConnection) {
			return err
		}
		if i == maxRetries-1 {
			break
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
